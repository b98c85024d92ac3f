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

// Package analytics records search events. Events are queued without
// blocking the search path and written to the store in batches, either
// when a batch fills up or on a flush interval. Close drains the queue.
package analytics

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/helpers/syncutil"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultFlushInterval = 30 * time.Second
	DefaultBatchSize     = 100
	DefaultQueueSize     = 1000

	writeTimeout = 10 * time.Second
)

// Writer persists a batch of events.
type Writer interface {
	WriteSearchEvents(ctx context.Context, events []catalog.SearchEvent) error
}

type Options struct {
	Clock         clockwork.Clock
	FlushInterval time.Duration
	BatchSize     int
	QueueSize     int
}

// Recorder is a search.EventSink backed by a Writer.
type Recorder struct {
	writer    Writer
	clock     clockwork.Clock
	queue     chan catalog.SearchEvent
	stop      chan struct{}
	done      chan struct{}
	opts      Options
	dropped   atomic.Int64
	written   atomic.Int64
	failed    atomic.Int64
	closeOnce sync.Once
	// mu orders sends against Close so no event is queued after the final
	// drain
	mu     syncutil.RWMutex
	closed bool
}

// New starts a recorder. Close must be called to stop it.
//
//nolint:gocritic // options struct copied once at construction
func New(w Writer, opts Options) *Recorder {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	r := &Recorder{
		writer: w,
		clock:  opts.Clock,
		opts:   opts,
		queue:  make(chan catalog.SearchEvent, opts.QueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

// Record queues an event. It never blocks: when the queue is full, or the
// recorder is closed, the event is dropped and counted.
func (r *Recorder) Record(ev catalog.SearchEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = r.clock.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop()
		return
	}
	select {
	case r.queue <- ev:
		queueDepth.Set(float64(len(r.queue)))
	default:
		r.drop()
	}
}

func (r *Recorder) drop() {
	r.dropped.Add(1)
	eventsTotal.WithLabelValues("dropped").Inc()
}

// Dropped is the number of events discarded because the queue was full or
// the recorder was closed.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Written is the number of events handed to the writer successfully.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// Failed is the number of events lost to writer errors.
func (r *Recorder) Failed() int64 {
	return r.failed.Load()
}

// Close stops accepting events, flushes everything queued and waits for the
// final write, or for ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.stop)
	})
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to flush analytics before shutdown: %w", ctx.Err())
	}
}

func (r *Recorder) loop() {
	defer close(r.done)

	ticker := r.clock.NewTicker(r.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]catalog.SearchEvent, 0, r.opts.BatchSize)
	for {
		select {
		case ev := <-r.queue:
			batch = append(batch, ev)
			if len(batch) >= r.opts.BatchSize {
				batch = r.flush(batch)
			}
		case <-ticker.Chan():
			batch = r.flush(batch)
		case <-r.stop:
			for {
				select {
				case ev := <-r.queue:
					batch = append(batch, ev)
					if len(batch) >= r.opts.BatchSize {
						batch = r.flush(batch)
					}
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes batch and returns it emptied. A failed batch is logged and
// discarded.
func (r *Recorder) flush(batch []catalog.SearchEvent) []catalog.SearchEvent {
	queueDepth.Set(float64(len(r.queue)))
	if len(batch) == 0 {
		return batch
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.writer.WriteSearchEvents(ctx, batch); err != nil {
		r.failed.Add(int64(len(batch)))
		eventsTotal.WithLabelValues("failed").Add(float64(len(batch)))
		log.Warn().Err(err).Int("events", len(batch)).Msg("failed to write search events")
	} else {
		r.written.Add(int64(len(batch)))
		eventsTotal.WithLabelValues("written").Add(float64(len(batch)))
		log.Debug().Int("events", len(batch)).Msg("wrote search events")
	}
	return batch[:0]
}
