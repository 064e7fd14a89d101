// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/flybywiresim/api/internal/logging"
	"github.com/flybywiresim/api/internal/metrics"
	"github.com/flybywiresim/api/internal/models"
)

type contextKey string

// ClaimsContextKey carries the validated token claims through the request
// context.
const ClaimsContextKey contextKey = "claims"

// Middleware provides bearer-token authentication and per-IP rate limiting.
type Middleware struct {
	jwtManager        *JWTManager
	rateLimiter       *RateLimiter
	rateLimitDisabled bool
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(jwtManager *JWTManager, reqsPerWindow int, window time.Duration, rateLimitDisabled bool) *Middleware {
	m := &Middleware{
		jwtManager:        jwtManager,
		rateLimiter:       NewRateLimiter(reqsPerWindow, window),
		rateLimitDisabled: rateLimitDisabled,
	}

	if !rateLimitDisabled {
		go m.rateLimiter.startCleanup(5 * time.Minute)
	}

	return m
}

// Authenticate enforces a valid bearer token and stores its claims in the
// request context.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Debug().Err(err).Msg("Token validation failed")
			writeAuthError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// ClaimsFromContext returns the validated claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// RateLimit enforces per-IP rate limiting.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitDisabled {
			next(w, r)
			return
		}

		ip := clientIP(r)
		if !m.rateLimiter.Allow(ip) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			writeAuthError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

// extractBearerToken pulls the token from the Authorization header.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// clientIP relies on chi's RealIP middleware having normalized RemoteAddr.
// RemoteAddr may be a bare IP or host:port; bare IPv6 addresses must not be
// split on their last colon.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeAuthError writes the flat HTTPError payload the API uses everywhere.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.HTTPError{
		StatusCode: status,
		Message:    message,
	})
}

// RateLimiter implements per-IP rate limiting with automatic cleanup.
type RateLimiter struct {
	limiters  map[string]*rateLimiterEntry
	mu        sync.RWMutex
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
}

// rateLimiterEntry wraps a rate limiter with last access time.
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a new rate limiter allowing reqsPerWindow
// requests per window per client IP.
func NewRateLimiter(reqsPerWindow int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Every(window),
		burst:     reqsPerWindow,
		stopClean: make(chan struct{}),
	}
}

// Allow checks if a request from the given IP is allowed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:    rate.NewLimiter(rl.rate, rl.burst),
			lastAccess: time.Now(),
		}
		rl.limiters[ip] = entry
	} else {
		entry.lastAccess = time.Now()
	}
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// startCleanup periodically removes stale rate limiters.
func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopClean:
			return
		}
	}
}

// cleanup removes rate limiters not accessed in the last hour.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-1 * time.Hour)
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

// Stop stops the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopClean)
}
