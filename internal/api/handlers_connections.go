// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/flybywiresim/api/internal/auth"
	"github.com/flybywiresim/api/internal/cache"
	"github.com/flybywiresim/api/internal/geo"
	"github.com/flybywiresim/api/internal/models"
)

// CreateConnection handles POST /api/v1/connections. It registers a
// flight and returns the bearer token for the new connection.
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateConnectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.svc.AddConnection(r.Context(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, token)
}

// UpdateConnection handles PUT /api/v1/connections. The connection id
// comes from the bearer token.
func (h *Handler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, models.HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
		})
		return
	}

	var req models.UpdateConnectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	conn, err := h.svc.UpdateConnection(r.Context(), claims.ConnectionID(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, conn)
}

// DisableConnection handles DELETE /api/v1/connections.
func (h *Handler) DisableConnection(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, models.HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
		})
		return
	}

	if err := h.svc.DisableConnection(r.Context(), claims.ConnectionID()); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// GetAllConnections handles GET /api/v1/connections with pagination
// and an optional bounding box.
func (h *Handler) GetAllConnections(w http.ResponseWriter, r *http.Request) {
	take := parseIntQuery(r, "take", 25)
	skip := parseIntQuery(r, "skip", 0)
	bounds := geo.Bounds{
		North: parseFloatQuery(r, "north", 90),
		South: parseFloatQuery(r, "south", -90),
		East:  parseFloatQuery(r, "east", 180),
		West:  parseFloatQuery(r, "west", -180),
	}

	key := cache.GenerateKey("connections:list", map[string]interface{}{
		"take": take, "skip": skip, "bounds": bounds,
	})
	h.serveCached(w, r, key, func() (interface{}, error) {
		return h.svc.ListActiveConnections(r.Context(), take, skip, bounds)
	})
}

// FindConnections handles GET /api/v1/connections/_find?flight=.
func (h *Handler) FindConnections(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("flight")
	if query == "" {
		respondBadRequest(w, "flight query parameter is required")
		return
	}

	key := cache.GenerateKey("connections:find", query)
	h.serveCached(w, r, key, func() (interface{}, error) {
		return h.svc.FindConnectionsByFlight(r.Context(), query)
	})
}

// CountConnections handles GET /api/v1/connections/_count. The body is
// a bare integer.
func (h *Handler) CountConnections(w http.ResponseWriter, r *http.Request) {
	key := cache.GenerateKey("connections:count", nil)
	h.serveCached(w, r, key, func() (interface{}, error) {
		return h.svc.CountActiveConnections(r.Context())
	})
}

// GetSingleConnection handles GET /api/v1/connections/{id}.
func (h *Handler) GetSingleConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	key := cache.GenerateKey("connections:get", id)
	h.serveCached(w, r, key, func() (interface{}, error) {
		return h.svc.GetConnection(r.Context(), id)
	})
}

// serveCached memoizes the encoded response for the configured TTL.
// Errors are never cached.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, fetch func() (interface{}, error)) {
	if h.cache != nil {
		if cached, ok := h.cache.Get(key); ok {
			if body, ok := cached.([]byte); ok {
				respondRaw(w, http.StatusOK, body)
				return
			}
		}
	}

	v, err := fetch()
	if err != nil {
		respondError(w, r, err)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if h.cache != nil {
		h.cache.Set(key, body)
	}
	respondRaw(w, http.StatusOK, body)
}

func parseIntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseFloatQuery(r *http.Request, name string, def float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}
