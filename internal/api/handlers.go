// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package api provides the HTTP surface of the TELEX service.
package api

import (
	"time"

	"github.com/flybywiresim/api/internal/cache"
	"github.com/flybywiresim/api/internal/database"
	"github.com/flybywiresim/api/internal/telex"
)

// Handler carries the dependencies of all HTTP handlers.
type Handler struct {
	svc       *telex.Service
	db        *database.DB
	cache     *cache.Cache
	startTime time.Time
}

// NewHandler creates the handler set. The cache memoizes read-side
// responses; pass nil to disable caching.
func NewHandler(svc *telex.Service, db *database.DB, c *cache.Cache) *Handler {
	return &Handler{
		svc:       svc,
		db:        db,
		cache:     c,
		startTime: time.Now(),
	}
}
