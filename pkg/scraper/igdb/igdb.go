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

// Package igdb is a client for the IGDB v4 games API, used as the external
// catalog source. Requests are rate limited, guarded by a circuit breaker
// and authenticated with a cached Twitch client-credentials token.
package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/helpers/syncutil"
	"github.com/gamedex/gamedex-core/pkg/shared/httpclient"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api.igdb.com/v4"
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token" // #nosec G101 - Public OAuth endpoint URL, not a credential

	// IGDB allows 4 requests per second per client.
	DefaultRequestsPerSecond = 4
	// MaxBatchSize is the largest limit IGDB accepts on one query.
	MaxBatchSize = 500

	userAgent     = "Gamedex Core/1.0"
	tokenMargin   = time.Minute
	breakerTrips  = 5
	breakerWindow = time.Minute
	breakerCool   = 30 * time.Second
)

// gameFields are the fields requested for every game query.
const gameFields = "fields name,slug,summary,category,status,parent_game,version_parent," +
	"first_release_date,release_dates.date,cover.url,cover.image_id,platforms.name," +
	"involved_companies.company.name,involved_companies.developer,involved_companies.publisher," +
	"franchise.name,franchises.name,collections.name,alternative_names.name," +
	"rating,rating_count,total_rating,total_rating_count,follows,hypes;"

var (
	ErrNotFound           = errors.New("game not found")
	ErrRateLimited        = errors.New("rate limited by IGDB (429)")
	ErrUnauthorized       = errors.New("IGDB authentication failed")
	ErrCircuitOpen        = errors.New("IGDB circuit open")
	ErrMissingCredentials = errors.New("IGDB requires Twitch client credentials")
)

// Options configures a Client. Zero values use the defaults.
type Options struct {
	Clock             clockwork.Clock
	HTTPClient        *httpclient.Client
	BaseURL           string
	TokenURL          string
	ClientID          string
	ClientSecret      string
	RequestsPerSecond int
	Timeout           time.Duration
}

// Client is an IGDB API client. It is safe for concurrent use.
type Client struct {
	clock        clockwork.Clock
	client       *httpclient.Client
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[[]Game]
	token        *TokenInfo
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	tokenMu      syncutil.Mutex
}

// New creates a client. Credentials are required.
//
//nolint:gocritic // options struct copied once at construction
func New(opts Options) (*Client, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = httpclient.DefaultTimeoutSeconds * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = httpclient.NewClientWithTimeout(opts.Timeout)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	c := &Client{
		clock:        opts.Clock,
		client:       opts.HTTPClient,
		limiter:      rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond),
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		tokenURL:     opts.TokenURL,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]Game](gobreaker.Settings{
		Name:        "igdb",
		MaxRequests: 1,
		Interval:    breakerWindow,
		Timeout:     breakerCool,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrips
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			breakerState.Set(float64(to))
		},
	})
	return c, nil
}

// Search returns games matching text, in IGDB's relevance order.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]catalog.Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	limit = max(1, min(limit, MaxBatchSize))
	body := fmt.Sprintf("%s search %s; limit %d;", gameFields, quote(text), limit)

	games, err := c.query(ctx, "search", body)
	if err != nil {
		return nil, err
	}
	return toItems(games), nil
}

// GetGames fetches games by IGDB id. Ids that IGDB does not know are
// silently missing from the result.
func (c *Client) GetGames(ctx context.Context, ids []int64) ([]catalog.Item, error) {
	var out []catalog.Item
	for batch := range slices.Chunk(ids, MaxBatchSize) {
		parts := make([]string, len(batch))
		for i, id := range batch {
			parts[i] = strconv.FormatInt(id, 10)
		}
		body := fmt.Sprintf("%s where id = (%s); limit %d;",
			gameFields, strings.Join(parts, ","), len(batch))

		games, err := c.query(ctx, "games", body)
		if err != nil {
			return out, err
		}
		out = append(out, toItems(games)...)
	}
	return out, nil
}

// GetGame fetches a single game.
func (c *Client) GetGame(ctx context.Context, id int64) (catalog.Item, error) {
	items, err := c.GetGames(ctx, []int64{id})
	if err != nil {
		return catalog.Item{}, err
	}
	if len(items) == 0 {
		return catalog.Item{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return items[0], nil
}

func toItems(games []Game) []catalog.Item {
	items := make([]catalog.Item, 0, len(games))
	for i := range games {
		items = append(items, ToItem(&games[i]))
	}
	return items
}

// quote escapes text for an apicalypse string literal.
func quote(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(text) + `"`
}

// query waits for the limiter outside the breaker: a local wait that
// cannot finish before ctx ends says nothing about IGDB's health.
func (c *Client) query(ctx context.Context, kind, body string) ([]Game, error) {
	start := c.clock.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		requestsTotal.WithLabelValues(kind, "throttled").Inc()
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}
	games, err := c.breaker.Execute(func() ([]Game, error) {
		return c.post(ctx, body)
	})
	requestDuration.WithLabelValues(kind).Observe(c.clock.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			requestsTotal.WithLabelValues(kind, "rejected").Inc()
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		requestsTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	requestsTotal.WithLabelValues(kind, "ok").Inc()
	return games, nil
}

func (c *Client) post(ctx context.Context, body string) ([]Game, error) {
	token, err := c.ensureValidToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get valid token: %w", err)
	}

	log.Debug().Str("query", body).Msg("IGDB request")

	header := http.Header{}
	header.Set("Client-ID", c.clientID)
	header.Set("Authorization", "Bearer "+token)
	header.Set("User-Agent", userAgent)

	resp, err := c.client.Post(ctx, c.baseURL+"/games", "text/plain", header, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleHTTPError(resp)
	}

	var games []Game
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return games, nil
}

// handleHTTPError maps an error response to an error, dropping the cached
// token when IGDB rejects it.
func (c *Client) handleHTTPError(resp *http.Response) error {
	var detail string
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErrs []apiError
	if json.Unmarshal(data, &apiErrs) == nil && len(apiErrs) > 0 {
		detail = strings.TrimSpace(apiErrs[0].Title + " " + apiErrs[0].Cause)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		c.invalidateToken()
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case http.StatusNotFound:
		return ErrNotFound
	default:
		if detail != "" {
			return fmt.Errorf("IGDB error %d: %s", resp.StatusCode, detail)
		}
		return fmt.Errorf("IGDB error %d", resp.StatusCode)
	}
}

func (c *Client) invalidateToken() {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = nil
}

// ensureValidToken returns a cached access token, requesting a new one
// from Twitch when none is cached or the cached one is about to expire.
func (c *Client) ensureValidToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != nil && c.clock.Now().Add(tokenMargin).Before(c.token.ExpiresAt) {
		return c.token.AccessToken, nil
	}

	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.clientSecret)
	params.Set("grant_type", "client_credentials")

	resp, err := c.client.Post(ctx, c.tokenURL, "application/x-www-form-urlencoded",
		nil, strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token request failed with status %d", ErrUnauthorized, resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUnauthorized)
	}

	c.token = &TokenInfo{
		AccessToken: tokenResp.AccessToken,
		ExpiresAt:   c.clock.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
		TokenType:   tokenResp.TokenType,
	}

	log.Info().Msg("obtained IGDB access token")
	return c.token.AccessToken, nil
}
