// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package telex

import (
	"context"
	"time"

	"github.com/flybywiresim/api/internal/config"
	"github.com/flybywiresim/api/internal/database"
	"github.com/flybywiresim/api/internal/logging"
	"github.com/flybywiresim/api/internal/metrics"
)

// Sweeper periodically deactivates connections whose last contact is
// older than the configured timeout. It runs as a supervised service.
type Sweeper struct {
	db  *database.DB
	cfg *config.TelexConfig
}

func NewSweeper(db *database.DB, cfg *config.TelexConfig) *Sweeper {
	return &Sweeper{db: db, cfg: cfg}
}

func (s *Sweeper) String() string {
	return "telex-sweeper"
}

// Serve runs the sweep loop until the context is cancelled. Sweep
// errors are logged and counted, never fatal.
func (s *Sweeper) Serve(ctx context.Context) error {
	if s.cfg.DisableCleanup {
		logging.Warn().Msg("connection cleanup disabled, stale connections will persist")
		<-ctx.Done()
		return ctx.Err()
	}

	logging.Info().
		Dur("interval", s.cfg.SweepInterval).
		Int("timeout_min", s.cfg.TimeoutMin).
		Msg("starting connection sweeper")

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	cutoff := start.UTC().Add(-time.Duration(s.cfg.TimeoutMin) * time.Minute)

	affected, err := s.db.SweepStaleConnections(ctx, cutoff)
	metrics.RecordSweep(time.Since(start), affected, err)
	if err != nil {
		logging.Err(err).Msg("connection sweep failed")
		return
	}
	if affected > 0 {
		logging.Info().Int64("deactivated", affected).Msg("deactivated stale connections")
	}

	if count, err := s.db.CountActiveConnections(ctx); err == nil {
		metrics.ConnectionsActive.Set(float64(count))
	}
}
