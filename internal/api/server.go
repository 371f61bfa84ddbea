// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package api serves the sweeparr HTTP API.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/sweeparr/internal/api/handlers"
	"github.com/autobrr/sweeparr/internal/domain"
	"github.com/autobrr/sweeparr/internal/models"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Config        *domain.Config
	DeleteSync    handlers.DeleteSyncRunner
	UserStore     *models.UserStore
	InstanceStore *models.ArrInstanceStore
}

// Server is the sweeparr HTTP server.
type Server struct {
	deps Dependencies
}

// NewServer creates a new API server.
func NewServer(deps Dependencies) *Server {
	return &Server{deps: deps}
}

// Handler builds the full route tree, mounted under the configured base URL.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.New(cors.Options{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	baseURL := normalizeBaseURL(s.deps.Config.BaseURL)

	r.Route(baseURL+"api", func(api chi.Router) {
		handlers.NewVersionHandler().Routes(api)

		api.Route("/deletesync", handlers.NewDeleteSyncHandler(s.deps.DeleteSync).Routes)
		api.Route("/users", handlers.NewUsersHandler(s.deps.UserStore).Routes)
		api.Route("/instances", handlers.NewArrInstancesHandler(s.deps.InstanceStore).Routes)
	})

	return r
}

// Serve blocks until the context is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.deps.Config.Host, fmt.Sprintf("%d", s.deps.Config.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// normalizeBaseURL forces a leading and trailing slash so routes mount
// cleanly whether baseUrl is "", "/", or "/sweeparr".
func normalizeBaseURL(raw string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed + "/"
}
