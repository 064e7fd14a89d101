// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package telex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flybywiresim/api/internal/config"
	"github.com/flybywiresim/api/internal/database"
	"github.com/flybywiresim/api/internal/models"
)

func newSweeperDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "256MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertConnectionWithLastContact(t *testing.T, db *database.DB, flight string, lastContact time.Time) string {
	t.Helper()

	conn := &models.Connection{
		ID:              uuid.NewString(),
		IsActive:        true,
		FirstContact:    lastContact,
		LastContact:     lastContact,
		Flight:          flight,
		Location:        models.Point{X: 0, Y: 0},
		TrueAltitude:    3000,
		FreetextEnabled: true,
		AircraftType:    "unknown",
	}
	if err := db.CreateConnection(context.Background(), conn); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return conn.ID
}

func TestSweepDeactivatesStaleConnections(t *testing.T) {
	db := newSweeperDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	staleID := insertConnectionWithLastContact(t, db, "OS355", now.Add(-10*time.Minute))
	freshID := insertConnectionWithLastContact(t, db, "DLH400", now)

	sweeper := NewSweeper(db, &config.TelexConfig{
		TimeoutMin:    6,
		SweepInterval: 5 * time.Second,
	})
	sweeper.sweep(ctx)

	stale, err := db.GetConnectionByID(ctx, staleID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stale.IsActive {
		t.Error("expected stale connection to be deactivated")
	}

	fresh, err := db.GetConnectionByID(ctx, freshID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !fresh.IsActive {
		t.Error("expected fresh connection to stay active")
	}
}

func TestSweeperServeStopsOnContextCancel(t *testing.T) {
	db := newSweeperDB(t)

	sweeper := NewSweeper(db, &config.TelexConfig{
		TimeoutMin:    6,
		SweepInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Serve(ctx) }()

	// Let a few ticks pass before shutting down.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}

func TestSweeperDisabledCleanup(t *testing.T) {
	db := newSweeperDB(t)
	now := time.Now().UTC()
	staleID := insertConnectionWithLastContact(t, db, "OS355", now.Add(-time.Hour))

	sweeper := NewSweeper(db, &config.TelexConfig{
		TimeoutMin:     6,
		SweepInterval:  10 * time.Millisecond,
		DisableCleanup: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	conn, err := db.GetConnectionByID(context.Background(), staleID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !conn.IsActive {
		t.Error("cleanup disabled, stale connection must stay active")
	}
}
