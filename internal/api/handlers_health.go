// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package api

import (
	"net/http"
	"time"

	"github.com/flybywiresim/api/internal/models"
)

// HealthLive handles GET /api/v1/health/live. It only proves the
// process is responding.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

// HealthReady handles GET /api/v1/health/ready. Readiness requires a
// reachable database.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, models.HealthResponse{
			Status:    "unavailable",
			Timestamp: time.Now().UTC(),
			Database:  "unreachable",
		})
		return
	}

	respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Database:  "ok",
	})
}

// Health handles GET /api/v1/health with a summary including uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	database := "ok"
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		database = "unreachable"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, models.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Database:  database,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
