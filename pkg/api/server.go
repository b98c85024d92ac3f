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

// Package api serves the search and admin HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gamedex/gamedex-core/pkg/api/methods"
	apimiddleware "github.com/gamedex/gamedex-core/pkg/api/middleware"
	"github.com/gamedex/gamedex-core/pkg/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	RequestTimeout    = 30 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Options configure the HTTP surface.
type Options struct {
	Clock             clockwork.Clock
	Listen            string
	AllowedOrigins    []string
	AdminAllowedIPs   []string
	RequestsPerMinute int
	Burst             int
}

// OptionsFromConfig reads server options from the service config section.
func OptionsFromConfig(cfg *config.Instance) Options {
	perMinute, burst := cfg.RateLimit()
	return Options{
		Listen:            cfg.APIListen(),
		AllowedOrigins:    cfg.AllowedOrigins(),
		AdminAllowedIPs:   cfg.AdminAllowedIPs(),
		RequestsPerMinute: perMinute,
		Burst:             burst,
	}
}

type Server struct {
	handler http.Handler
	limiter *apimiddleware.IPRateLimiter
	listen  string
}

// NewServer builds the router. Admin routes and /metrics are limited to
// AdminAllowedIPs; every route is rate limited per client IP.
func NewServer(env *methods.Env, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	limiter := apimiddleware.NewIPRateLimiter(opts.RequestsPerMinute, opts.Burst, opts.Clock)
	adminFilter := apimiddleware.NewIPFilter(opts.AdminAllowedIPs)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "PUT", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(apimiddleware.HTTPRateLimitMiddleware(limiter))

	r.Get("/api/search", methods.HandleSearch(env))

	r.Group(func(r chi.Router) {
		r.Use(apimiddleware.HTTPIPFilterMiddleware(adminFilter))

		r.Handle("/metrics", promhttp.Handler())

		r.Route("/api/admin", func(r chi.Router) {
			r.Put("/items/{id}/override", methods.HandleSetOverride(env))
			r.Put("/items/{id}/rank-flag", methods.HandleSetRankFlag(env))
			r.Get("/filters", methods.HandleGetFilters(env))
			r.Put("/filters", methods.HandleSetFilters(env))
			r.Get("/copyright", methods.HandleGetCopyright(env))
			r.Put("/copyright", methods.HandleSetCopyright(env))
			r.Get("/relevance", methods.HandleGetRelevance(env))
			r.Put("/relevance", methods.HandleSetRelevance(env))
			r.Get("/ranking", methods.HandleGetRanking(env))
			r.Put("/ranking", methods.HandleSetRanking(env))
			r.Get("/franchises", methods.HandleGetFranchises(env))
			r.Put("/franchises", methods.HandleSetFranchises(env))
			r.Get("/flagships", methods.HandleGetFlagships(env))
			r.Put("/flagships", methods.HandleSetFlagships(env))
			r.Post("/cache/clear", methods.HandleClearCache(env))
			r.Get("/sync", methods.HandleSyncStatus(env))
			r.Post("/sync", methods.HandleTriggerSync(env))
		})
	})

	return &Server{handler: r, limiter: limiter, listen: opts.Listen}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.limiter.StartCleanup(ctx)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("api server shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	log.Info().Msg("api server stopped")
	return nil
}
