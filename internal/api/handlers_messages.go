// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package api

import (
	"net/http"

	"github.com/flybywiresim/api/internal/auth"
	"github.com/flybywiresim/api/internal/models"
)

// SendMessage handles POST /api/v1/messages. The sender is the
// connection behind the bearer token.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, models.HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
		})
		return
	}

	var req models.SendMessageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), claims.ConnectionID(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// FetchMessages handles GET /api/v1/messages. Messages are
// acknowledged on fetch unless acknowledge=false is passed.
func (h *Handler) FetchMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, models.HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
		})
		return
	}

	acknowledge := r.URL.Query().Get("acknowledge") != "false"

	msgs, err := h.svc.FetchMessages(r.Context(), claims.ConnectionID(), acknowledge)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	respondJSON(w, http.StatusOK, msgs)
}
