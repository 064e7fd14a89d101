// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flybywiresim/api/internal/logging"
)

// blockingService runs until its context is cancelled.
type blockingService struct {
	started chan struct{}
}

func (s *blockingService) Serve(ctx context.Context) error {
	select {
	case s.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking-service" }

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 || cfg.FailureDecay != 30.0 {
		t.Errorf("unexpected failure settings: %+v", cfg)
	}
	if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected timing settings: %+v", cfg)
	}
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), TreeConfig{})

	maintenance := &blockingService{started: make(chan struct{}, 1)}
	api := &blockingService{started: make(chan struct{}, 1)}
	tree.AddMaintenanceService(maintenance)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range []*blockingService{maintenance, api} {
		select {
		case <-svc.started:
		case <-time.After(5 * time.Second):
			t.Fatalf("%s did not start", svc)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected terminal error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop on context cancel")
	}
}
