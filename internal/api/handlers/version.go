// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/autobrr/sweeparr/internal/buildinfo"
)

// VersionHandler serves build metadata and liveness.
type VersionHandler struct{}

// NewVersionHandler creates a new VersionHandler.
func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// Routes registers the version and health routes.
func (h *VersionHandler) Routes(r chi.Router) {
	r.Get("/version", h.version)
	r.Get("/health", h.health)
}

func (h *VersionHandler) version(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

func (h *VersionHandler) health(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
