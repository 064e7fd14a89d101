// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package auth

import (
	"testing"
	"time"

	"github.com/flybywiresim/api/internal/config"
)

func testManager(t *testing.T, expires time.Duration) *JWTManager {
	t.Helper()

	m, err := NewJWTManager(&config.AuthConfig{
		Secret:  "0123456789abcdef0123456789abcdef",
		Expires: expires,
	})
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	return m
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTManager(&config.AuthConfig{Secret: "", Expires: time.Hour})
	if err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	m := testManager(t, 12*time.Hour)

	ft, err := m.RegisterFlight("OS355", "8a1f2c9e-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatalf("RegisterFlight failed: %v", err)
	}

	if ft.Flight != "OS355" {
		t.Errorf("expected flight OS355, got %s", ft.Flight)
	}
	if ft.Connection != "8a1f2c9e-0000-0000-0000-000000000001" {
		t.Errorf("unexpected connection id: %s", ft.Connection)
	}

	claims, err := m.ValidateToken(ft.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Flight != "OS355" {
		t.Errorf("expected flight claim OS355, got %s", claims.Flight)
	}
	if claims.ConnectionID() != ft.Connection {
		t.Errorf("expected subject %s, got %s", ft.Connection, claims.ConnectionID())
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	m := testManager(t, -time.Minute)

	token, err := m.GenerateToken("OS355", "id-1")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	t.Parallel()

	m1 := testManager(t, time.Hour)
	m2, err := NewJWTManager(&config.AuthConfig{
		Secret:  "another-secret-another-secret-123",
		Expires: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := m1.GenerateToken("OS355", "id-1")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := m2.ValidateToken(token); err == nil {
		t.Error("expected token signed with a different secret to be rejected")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	t.Parallel()

	m := testManager(t, time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.ValidateToken(token); err == nil {
			t.Errorf("expected %q to be rejected", token)
		}
	}
}
