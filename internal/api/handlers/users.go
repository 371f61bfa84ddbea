// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/sweeparr/internal/models"
)

// UsersHandler exposes the synced Plex users and their sync eligibility.
type UsersHandler struct {
	store *models.UserStore
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(store *models.UserStore) *UsersHandler {
	return &UsersHandler{store: store}
}

// Routes registers the user routes.
func (h *UsersHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Patch("/{userID}/sync", h.setCanSync)
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		RespondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	RespondJSON(w, http.StatusOK, users)
}

type setCanSyncRequest struct {
	CanSync bool `json:"canSync"`
}

func (h *UsersHandler) setCanSync(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIntParam(w, r, "userID", "user ID")
	if !ok {
		return
	}

	var req setCanSyncRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.store.SetCanSync(r.Context(), id, req.CanSync); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Int("userID", id).Msg("Failed to update user sync setting")
		RespondError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}
