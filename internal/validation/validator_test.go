// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package validation

import (
	"strings"
	"testing"

	"github.com/flybywiresim/api/internal/models"
)

func TestValidateCreateConnectionRequest(t *testing.T) {
	t.Parallel()

	req := models.CreateConnectionRequest{
		Flight:       "OS355",
		Location:     &models.Point{X: 16.56, Y: 48.12},
		TrueAltitude: altitude(3500),
		Heading:      90,
	}

	if err := ValidateStruct(&req); err != nil {
		t.Errorf("expected valid request, got: %v", err)
	}
}

func TestValidateZeroValuesPass(t *testing.T) {
	t.Parallel()

	// Altitude 0 and a position on the equator/prime meridian are
	// legitimate reports; only absent fields may fail presence checks.
	req := models.CreateConnectionRequest{
		Flight:       "OS355",
		Location:     &models.Point{X: 0, Y: 0},
		TrueAltitude: altitude(0),
	}

	if err := ValidateStruct(&req); err != nil {
		t.Errorf("expected zero-valued request to validate, got: %v", err)
	}
}

func TestValidateMissingLocationAndAltitude(t *testing.T) {
	t.Parallel()

	req := models.CreateConnectionRequest{Flight: "OS355"}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation failure for absent location and altitude")
	}
	if !strings.Contains(err.Error(), "Location") || !strings.Contains(err.Error(), "TrueAltitude") {
		t.Errorf("expected error to mention Location and TrueAltitude, got: %v", err)
	}
}

func TestValidateMissingFlight(t *testing.T) {
	t.Parallel()

	req := models.CreateConnectionRequest{
		Location:     &models.Point{X: 16.56, Y: 48.12},
		TrueAltitude: altitude(3500),
		Heading:      90,
	}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation failure for missing flight")
	}
	if !strings.Contains(err.Error(), "Flight") {
		t.Errorf("expected error to mention Flight, got: %v", err)
	}
}

func TestValidateHeadingRange(t *testing.T) {
	t.Parallel()

	req := models.CreateConnectionRequest{
		Flight:       "OS355",
		Location:     &models.Point{X: 16.56, Y: 48.12},
		TrueAltitude: altitude(3500),
		Heading:      360,
	}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation failure for heading 360")
	}

	errs := err.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Field() != "Heading" || errs[0].Tag() != "lt" {
		t.Errorf("unexpected error: field=%s tag=%s", errs[0].Field(), errs[0].Tag())
	}
}

func TestValidateSendMessageRequest(t *testing.T) {
	t.Parallel()

	req := models.SendMessageRequest{To: "DLH401", Message: "Hello"}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("expected valid request, got: %v", err)
	}

	empty := models.SendMessageRequest{To: "DLH401"}
	if err := ValidateStruct(&empty); err == nil {
		t.Error("expected validation failure for empty message")
	}

	long := models.SendMessageRequest{To: "DLH401", Message: strings.Repeat("x", 256)}
	if err := ValidateStruct(&long); err == nil {
		t.Error("expected validation failure for oversized message")
	}
}

func altitude(v float64) *float64 {
	return &v
}
