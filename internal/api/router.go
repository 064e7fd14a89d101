// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flybywiresim/api/internal/auth"
	"github.com/flybywiresim/api/internal/middleware"
)

// Router assembles the HTTP routes.
type Router struct {
	handler *Handler
	auth    *auth.Middleware
}

func NewRouter(handler *Handler, authMiddleware *auth.Middleware) *Router {
	return &Router{
		handler: handler,
		auth:    authMiddleware,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup configures all routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// Prometheus scrape endpoint, outside the instrumented tree.
	r.Handle("/metrics", promhttp.Handler())

	// Health endpoints skip rate limiting so orchestrators can poll
	// them freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(chiMiddleware(router.auth.RateLimit))

		r.Route("/connections", func(r chi.Router) {
			r.Post("/", router.handler.CreateConnection)
			r.Get("/", router.handler.GetAllConnections)
			r.Get("/_find", router.handler.FindConnections)
			r.Get("/_count", router.handler.CountConnections)
			r.Get("/{id}", router.handler.GetSingleConnection)

			// Mutations require the flight's bearer token.
			r.Group(func(r chi.Router) {
				r.Use(chiMiddleware(router.auth.Authenticate))
				r.Put("/", router.handler.UpdateConnection)
				r.Delete("/", router.handler.DisableConnection)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(chiMiddleware(router.auth.Authenticate))
			r.Post("/", router.handler.SendMessage)
			r.Get("/", router.handler.FetchMessages)
		})
	})

	return r
}
