// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/sweeparr/internal/models"
)

// ArrInstancesHandler manages the configured Sonarr and Radarr instances.
type ArrInstancesHandler struct {
	store *models.ArrInstanceStore
}

// NewArrInstancesHandler creates a new ArrInstancesHandler.
func NewArrInstancesHandler(store *models.ArrInstanceStore) *ArrInstancesHandler {
	return &ArrInstancesHandler{store: store}
}

// Routes registers the instance management routes.
func (h *ArrInstancesHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/{instanceID}", h.delete)
}

func (h *ArrInstancesHandler) list(w http.ResponseWriter, r *http.Request) {
	instances, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list arr instances")
		RespondError(w, http.StatusInternalServerError, "Failed to list instances")
		return
	}
	if instances == nil {
		instances = []*models.ArrInstance{}
	}
	RespondJSON(w, http.StatusOK, instances)
}

type createArrInstanceRequest struct {
	Type           string `json:"type"`
	Name           string `json:"name"`
	BaseURL        string `json:"baseUrl"`
	APIKey         string `json:"apiKey"`
	Enabled        *bool  `json:"enabled"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

func (h *ArrInstancesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createArrInstanceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	instanceType, err := models.ParseArrInstanceType(req.Type)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		RespondError(w, http.StatusBadRequest, "Instance name is required")
		return
	}
	if strings.TrimSpace(req.BaseURL) == "" {
		RespondError(w, http.StatusBadRequest, "Instance base URL is required")
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		RespondError(w, http.StatusBadRequest, "Instance API key is required")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	instance, err := h.store.Create(r.Context(), instanceType, req.Name, req.BaseURL, req.APIKey, enabled, req.TimeoutSeconds)
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("Failed to create arr instance")
		RespondError(w, http.StatusInternalServerError, "Failed to create instance")
		return
	}

	RespondJSON(w, http.StatusCreated, instance)
}

func (h *ArrInstancesHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIntParam(w, r, "instanceID", "instance ID")
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrArrInstanceNotFound) {
			RespondError(w, http.StatusNotFound, "Instance not found")
			return
		}
		log.Error().Err(err).Int("instanceID", id).Msg("Failed to delete arr instance")
		RespondError(w, http.StatusInternalServerError, "Failed to delete instance")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"message": "Instance deleted"})
}
