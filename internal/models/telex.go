// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package models defines the wire-level data types shared by the TELEX
// service, storage layer, and HTTP handlers. JSON field names follow the
// shapes the simulator clients already depend on.
package models

import "time"

// Point is a 2D position: X is longitude, Y is latitude.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Connection is a live presence record for one simulated flight.
//
// isActive is true at creation and flips to false exactly once, either
// through an explicit disable or the staleness sweep. A flight number may
// register a new connection once its previous record is inactive.
type Connection struct {
	ID              string    `json:"id"`
	IsActive        bool      `json:"isActive"`
	FirstContact    time.Time `json:"firstContact"`
	LastContact     time.Time `json:"lastContact"`
	Flight          string    `json:"flight"`
	Location        Point     `json:"location"`
	TrueAltitude    float64   `json:"trueAltitude"`
	Heading         float64   `json:"heading"`
	FreetextEnabled bool      `json:"freetextEnabled"`
	AircraftType    string    `json:"aircraftType"`
	Origin          string    `json:"origin,omitempty"`
	Destination     string    `json:"destination,omitempty"`
}

// Message is one store-and-forward freetext message between connections.
// Messages are append-only; the only mutation is the received flag, set
// when the recipient fetches with acknowledge or when the message is
// shadow-blocked at send time.
type Message struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Message   string    `json:"message"`
	IsProfane bool      `json:"isProfane"`
	Received  bool      `json:"received"`
}

// FlightToken is the registration response: the bearer token scoped to the
// new connection, the connection id, and the flight number it was minted for.
type FlightToken struct {
	AccessToken string `json:"accessToken"`
	Connection  string `json:"connection"`
	Flight      string `json:"flight"`
}

// PaginatedConnections is the listActive response shape.
// Total is the full matching count ignoring pagination; Count is
// len(Results).
type PaginatedConnections struct {
	Results []Connection `json:"results"`
	Count   int          `json:"count"`
	Total   int          `json:"total"`
}

// ConnectionSearchResult is the prefix-search response shape. FullMatch is
// the active connection whose flight equals the query verbatim, if any.
type ConnectionSearchResult struct {
	FullMatch *Connection  `json:"fullMatch"`
	Matches   []Connection `json:"matches"`
}
