// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package geo provides the bounding-box predicate used by the paginated
// connection listing.
package geo

import "fmt"

// Bounds is a rectangular bounding box in degrees. Containment is a plain
// rectangular test on longitude/latitude; the box does not wrap across the
// antimeridian.
type Bounds struct {
	North float64
	South float64
	East  float64
	West  float64
}

// WorldBounds returns the default box covering the whole globe.
func WorldBounds() Bounds {
	return Bounds{North: 90, South: -90, East: 180, West: -180}
}

// Validate checks coordinate ranges and edge ordering.
func (b Bounds) Validate() error {
	if b.North > 90 || b.South < -90 {
		return fmt.Errorf("latitude bounds out of range: north=%v south=%v", b.North, b.South)
	}
	if b.East > 180 || b.West < -180 {
		return fmt.Errorf("longitude bounds out of range: east=%v west=%v", b.East, b.West)
	}
	if b.South > b.North {
		return fmt.Errorf("south bound %v exceeds north bound %v", b.South, b.North)
	}
	if b.West > b.East {
		return fmt.Errorf("west bound %v exceeds east bound %v", b.West, b.East)
	}
	return nil
}

// Contains reports whether the point (lon, lat) lies within the box,
// edges inclusive.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.West && lon <= b.East && lat >= b.South && lat <= b.North
}
