// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package models

// CreateConnectionRequest is the POST /connections body. Location and
// TrueAltitude are pointers so presence is checked without rejecting
// legitimate zero values such as altitude 0 or a position on the
// equator/prime meridian.
type CreateConnectionRequest struct {
	Flight          string   `json:"flight" validate:"required,min=1,max=13"`
	Location        *Point   `json:"location" validate:"required"`
	TrueAltitude    *float64 `json:"trueAltitude" validate:"required,min=-2000,max=100000"`
	Heading         float64  `json:"heading" validate:"min=0,lt=360"`
	FreetextEnabled *bool    `json:"freetextEnabled,omitempty"`
	AircraftType    string   `json:"aircraftType,omitempty" validate:"omitempty,max=30"`
	Origin          string   `json:"origin,omitempty" validate:"omitempty,max=10"`
	Destination     string   `json:"destination,omitempty" validate:"omitempty,max=10"`
}

// UpdateConnectionRequest is the PUT /connections body. The connection id
// comes from the bearer token, never from the body; the flight number is
// immutable and therefore absent here.
type UpdateConnectionRequest struct {
	Location        *Point   `json:"location" validate:"required"`
	TrueAltitude    *float64 `json:"trueAltitude" validate:"required,min=-2000,max=100000"`
	Heading         float64  `json:"heading" validate:"min=0,lt=360"`
	FreetextEnabled *bool    `json:"freetextEnabled,omitempty"`
	AircraftType    string   `json:"aircraftType,omitempty" validate:"omitempty,max=30"`
	Origin          string   `json:"origin,omitempty" validate:"omitempty,max=10"`
	Destination     string   `json:"destination,omitempty" validate:"omitempty,max=10"`
}

// SendMessageRequest is the POST /messages body. The sender is taken from
// the bearer token; To is the recipient flight number.
type SendMessageRequest struct {
	To      string `json:"to" validate:"required,min=1,max=13"`
	Message string `json:"message" validate:"required,min=1,max=255"`
}
