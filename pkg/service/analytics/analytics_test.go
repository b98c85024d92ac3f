// Gamedex Core
// Copyright (c) 2026 The Gamedex Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gamedex Core.
//
// Gamedex Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gamedex Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gamedex Core.  If not, see <http://www.gnu.org/licenses/>.

package analytics

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/testing/helpers"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWriter struct {
	err     error
	block   chan struct{}
	entered chan struct{}
	writes  chan []catalog.SearchEvent
	batches [][]catalog.SearchEvent
	mu      sync.Mutex
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{writes: make(chan []catalog.SearchEvent, 100)}
}

func (w *fakeWriter) WriteSearchEvents(_ context.Context, events []catalog.SearchEvent) error {
	if w.entered != nil {
		w.entered <- struct{}{}
	}
	if w.block != nil {
		<-w.block
	}
	batch := slices.Clone(events)
	w.mu.Lock()
	w.batches = append(w.batches, batch)
	w.mu.Unlock()
	w.writes <- batch
	return w.err
}

func (w *fakeWriter) all() []catalog.SearchEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []catalog.SearchEvent
	for _, b := range w.batches {
		out = append(out, b...)
	}
	return out
}

func waitWrite(t *testing.T, w *fakeWriter) []catalog.SearchEvent {
	t.Helper()
	select {
	case b := <-w.writes:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("no write")
		return nil
	}
}

func TestRecorder_FlushesFullBatch(t *testing.T) {
	t.Parallel()
	w := newFakeWriter()
	r := New(w, Options{BatchSize: 2, Clock: clockwork.NewFakeClock()})
	defer func() { require.NoError(t, r.Close(context.Background())) }()

	r.Record(catalog.SearchEvent{Query: "mario"})
	r.Record(catalog.SearchEvent{Query: "zelda"})

	batch := waitWrite(t, w)
	require.Len(t, batch, 2)
	assert.Equal(t, "mario", batch[0].Query)
	assert.NotEmpty(t, batch[0].ID)
	assert.NotEqual(t, batch[0].ID, batch[1].ID)
	assert.False(t, batch[0].At.IsZero())
}

func TestRecorder_FlushesOnInterval(t *testing.T) {
	t.Parallel()
	w := newFakeWriter()
	clock := clockwork.NewFakeClock()
	r := New(w, Options{BatchSize: 50, FlushInterval: time.Minute, Clock: clock})
	defer func() { require.NoError(t, r.Close(context.Background())) }()

	r.Record(catalog.SearchEvent{ID: "fixed", Query: "halo"})
	require.NoError(t, clock.BlockUntilContext(t.Context(), 1))

	// the event may still be in the queue when the tick lands
	require.Eventually(t, func() bool {
		clock.Advance(time.Minute)
		select {
		case b := <-w.writes:
			return len(b) == 1 && b[0].ID == "fixed"
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecorder_CloseDrainsQueue(t *testing.T) {
	t.Parallel()
	w := newFakeWriter()
	r := New(w, Options{BatchSize: 2, Clock: clockwork.NewFakeClock()})

	for range 5 {
		r.Record(catalog.SearchEvent{Query: "q"})
	}
	require.NoError(t, r.Close(context.Background()))

	assert.Len(t, w.all(), 5)
	assert.Equal(t, int64(5), r.Written())

	r.Record(catalog.SearchEvent{Query: "late"})
	assert.Equal(t, int64(1), r.Dropped())
	require.NoError(t, r.Close(context.Background()), "close is idempotent")
}

func TestRecorder_RecordDuringCloseIsAccounted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		queueSize int
	}{
		{name: "roomy queue", queueSize: 1000},
		{name: "tight queue", queueSize: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := newFakeWriter()
			r := New(w, Options{BatchSize: 8, QueueSize: tt.queueSize, Clock: clockwork.NewFakeClock()})

			const workers, perWorker = 8, 50
			var wg sync.WaitGroup
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range perWorker {
						r.Record(catalog.SearchEvent{Query: "q"})
					}
				}()
			}
			require.NoError(t, r.Close(context.Background()))
			wg.Wait()

			assert.Equal(t, int64(workers*perWorker), r.Written()+r.Dropped()+r.Failed())
			assert.Len(t, w.all(), int(r.Written()))
		})
	}
}

func TestRecorder_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()
	w := newFakeWriter()
	w.block = make(chan struct{})
	w.entered = make(chan struct{}, 10)
	r := New(w, Options{BatchSize: 1, QueueSize: 1, Clock: clockwork.NewFakeClock()})

	r.Record(catalog.SearchEvent{Query: "first"})
	<-w.entered

	r.Record(catalog.SearchEvent{Query: "queued"})
	r.Record(catalog.SearchEvent{Query: "dropped"})
	assert.Equal(t, int64(1), r.Dropped())

	close(w.block)
	require.NoError(t, r.Close(context.Background()))

	queries := make([]string, 0, 2)
	for _, ev := range w.all() {
		queries = append(queries, ev.Query)
	}
	assert.Equal(t, []string{"first", "queued"}, queries)
}

func TestRecorder_WriteErrorsCounted(t *testing.T) {
	t.Parallel()
	w := newFakeWriter()
	w.err = errors.New("database is locked")
	r := New(w, Options{BatchSize: 3, Clock: clockwork.NewFakeClock()})

	r.Record(catalog.SearchEvent{})
	r.Record(catalog.SearchEvent{})
	require.NoError(t, r.Close(context.Background()))

	assert.Equal(t, int64(2), r.Failed())
	assert.Equal(t, int64(0), r.Written())
}

func TestRecorder_CloseHonorsContext(t *testing.T) {
	t.Parallel()
	w := newFakeWriter()
	w.block = make(chan struct{})
	w.entered = make(chan struct{}, 1)
	r := New(w, Options{BatchSize: 1, Clock: clockwork.NewFakeClock()})

	r.Record(catalog.SearchEvent{})
	<-w.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Close(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(w.block)
	require.NoError(t, r.Close(context.Background()))
}

func TestRecorder_WritesToCatalogDB(t *testing.T) {
	t.Parallel()
	db := helpers.NewInMemoryCatalogDB(t)
	r := New(db, Options{BatchSize: 10})

	for _, q := range []string{"mario", "zelda", "metroid"} {
		r.Record(catalog.SearchEvent{Query: q, Normalized: q, Results: 3})
	}
	require.NoError(t, r.Close(context.Background()))

	n, err := db.CountSearchEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
