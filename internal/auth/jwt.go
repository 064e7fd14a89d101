// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package auth issues and validates the capability tokens that authorize
// connection mutations. A token is minted once at registration, bound to
// the new connection's id and flight number, and is the only credential
// for update/disable/messaging calls.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flybywiresim/api/internal/config"
	"github.com/flybywiresim/api/internal/models"
)

// Claims represents the token claims. Subject carries the connection id.
type Claims struct {
	Flight string `json:"flight"`
	jwt.RegisteredClaims
}

// ConnectionID returns the connection id the token is scoped to.
func (c *Claims) ConnectionID() string {
	return c.Subject
}

// JWTManager handles token creation and validation using HMAC-SHA256.
type JWTManager struct {
	secret  []byte
	expires time.Duration
}

// NewJWTManager creates a token manager with the configured secret and
// expiry. The secret must be non-empty; tokens signed with it cannot be
// forged or revoked before expiration.
func NewJWTManager(cfg *config.AuthConfig) (*JWTManager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required but was empty")
	}

	return &JWTManager{
		secret:  []byte(cfg.Secret),
		expires: cfg.Expires,
	}, nil
}

// RegisterFlight mints a capability token for a freshly created
// connection and wraps it in the FlightToken response shape.
func (m *JWTManager) RegisterFlight(flight, connectionID string) (*models.FlightToken, error) {
	token, err := m.GenerateToken(flight, connectionID)
	if err != nil {
		return nil, err
	}

	return &models.FlightToken{
		AccessToken: token,
		Connection:  connectionID,
		Flight:      flight,
	}, nil
}

// GenerateToken creates a signed token bound to a connection id and
// flight number, valid for the configured expiry (default 12h).
func (m *JWTManager) GenerateToken(flight, connectionID string) (string, error) {
	claims := &Claims{
		Flight: flight,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   connectionID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expires)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a token string and extracts its claims.
// Rejects tokens signed with an unexpected algorithm as well as expired
// or tampered tokens.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("token carries no connection id")
	}

	return claims, nil
}
