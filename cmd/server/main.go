// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package main is the entry point for the FlyByWire API server.
//
// The server provides the TELEX subsystem: a live registry of flights
// flying with FlyByWire aircraft and free-text messaging between them.
//
// # Application Architecture
//
// Components are initialized in the following order:
//
//  1. Configuration: layered loading via Koanf v2 (defaults, config file,
//     environment variables)
//  2. Database: DuckDB storage for connections and messages
//  3. Authentication: per-flight JWT tokens issued on registration
//  4. Notification sinks (optional): Discord webhook and NATS publisher
//  5. Supervisor tree: connection sweeper and HTTP server under suture
//
// # Configuration
//
// The only required setting is AUTH_SECRET (16+ characters). Common
// settings:
//
//	export AUTH_SECRET=$(openssl rand -base64 32)
//	export HTTP_PORT=3000
//	export DUCKDB_PATH=/data/fbw-api.duckdb
//	export TELEX_TIMEOUT_MIN=6
//	export DISCORD_ENABLED=true
//	export DISCORD_WEBHOOK_URL=https://discord.com/api/webhooks/...
//	export NATS_ENABLED=true
//	export NATS_URL=nats://localhost:4222
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the HTTP server
// drains in-flight requests, the sweeper stops, and the database is
// closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/flybywiresim/api/internal/api"
	"github.com/flybywiresim/api/internal/auth"
	"github.com/flybywiresim/api/internal/cache"
	"github.com/flybywiresim/api/internal/config"
	"github.com/flybywiresim/api/internal/database"
	"github.com/flybywiresim/api/internal/filter"
	"github.com/flybywiresim/api/internal/logging"
	"github.com/flybywiresim/api/internal/notify"
	"github.com/flybywiresim/api/internal/supervisor"
	"github.com/flybywiresim/api/internal/supervisor/services"
	"github.com/flybywiresim/api/internal/telex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Int("timeout_min", cfg.Telex.TimeoutMin).
		Msg("Starting FlyByWire API")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	jwtManager, err := auth.NewJWTManager(&cfg.Auth)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	messageFilter := filter.New(cfg.Telex.ExtraProfanity...)

	// Optional notification sinks. A sink that cannot be created is
	// skipped, never fatal.
	var notifiers []telex.Notifier
	if cfg.Discord.Enabled && cfg.Discord.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewDiscordNotifier(&cfg.Discord))
		logging.Info().Msg("Discord notifier registered")
	}
	var natsNotifier *notify.NATSNotifier
	if cfg.NATS.Enabled && cfg.NATS.URL != "" {
		natsNotifier, err = notify.NewNATSNotifier(&cfg.NATS)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to create NATS notifier, continuing without it")
		} else {
			notifiers = append(notifiers, natsNotifier)
			logging.Info().Str("url", cfg.NATS.URL).Msg("NATS notifier registered")
		}
	}
	if natsNotifier != nil {
		defer func() {
			if err := natsNotifier.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing NATS notifier")
			}
		}()
	}

	svc := telex.NewService(db, messageFilter, jwtManager, notifiers...)

	responseCache := cache.New(cfg.Telex.CacheTTL)
	handler := api.NewHandler(svc, db, responseCache)

	authMiddleware := auth.NewMiddleware(
		jwtManager,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)

	router := api.NewRouter(handler, authMiddleware)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(telex.NewSweeper(db, &cfg.Telex))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, s := range unstopped {
		logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
