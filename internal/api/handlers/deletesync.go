// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/sweeparr/internal/services/deletesync"
)

// DeleteSyncRunner is the delete-sync service surface the handler needs.
type DeleteSyncRunner interface {
	Run(ctx context.Context, dryRun bool) (*deletesync.Result, error)
	Status() deletesync.Status
}

// DeleteSyncHandler exposes manual run triggers and run status.
type DeleteSyncHandler struct {
	service DeleteSyncRunner
}

// NewDeleteSyncHandler creates a new DeleteSyncHandler.
func NewDeleteSyncHandler(service DeleteSyncRunner) *DeleteSyncHandler {
	return &DeleteSyncHandler{service: service}
}

// Routes registers the delete-sync routes.
func (h *DeleteSyncHandler) Routes(r chi.Router) {
	r.Post("/run", h.run)
	r.Get("/status", h.status)
}

// run triggers a reconciliation. Defaults to dry-run; callers must pass
// dryRun=false explicitly to delete for real.
func (h *DeleteSyncHandler) run(w http.ResponseWriter, r *http.Request) {
	dryRun := ParseBoolQuery(r, "dryRun", true)

	result, err := h.service.Run(r.Context(), dryRun)
	if err != nil {
		if errors.Is(err, deletesync.ErrRunInProgress) {
			RespondError(w, http.StatusConflict, "A delete-sync run is already in progress")
			return
		}
		log.Error().Err(err).Bool("dryRun", dryRun).Msg("Delete-sync run failed")
		RespondError(w, http.StatusInternalServerError, "Delete-sync run failed")
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

func (h *DeleteSyncHandler) status(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.service.Status())
}
