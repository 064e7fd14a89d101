// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flybywiresim/api/internal/geo"
	"github.com/flybywiresim/api/internal/metrics"
	"github.com/flybywiresim/api/internal/models"
)

// ErrDuplicateActiveFlight is returned when a conditional insert finds an
// active connection with the same flight number.
var ErrDuplicateActiveFlight = errors.New("an active connection with this flight number already exists")

// connectionColumns is the scan order shared by all connection queries.
const connectionColumns = `id, is_active, first_contact, last_contact, flight,
	longitude, latitude, true_altitude, heading, freetext_enabled,
	aircraft_type, origin, destination`

// ConnectionUpdate carries the mutable connection fields. Nil pointers
// leave the stored value untouched.
type ConnectionUpdate struct {
	Location        *models.Point
	TrueAltitude    *float64
	Heading         *float64
	FreetextEnabled *bool
	AircraftType    *string
	Origin          *string
	Destination     *string
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanConnection reads one connection row in connectionColumns order.
func scanConnection(row rowScanner) (*models.Connection, error) {
	var c models.Connection
	var origin, destination sql.NullString

	err := row.Scan(
		&c.ID, &c.IsActive, &c.FirstContact, &c.LastContact, &c.Flight,
		&c.Location.X, &c.Location.Y, &c.TrueAltitude, &c.Heading,
		&c.FreetextEnabled, &c.AircraftType, &origin, &destination,
	)
	if err != nil {
		return nil, err
	}

	c.Origin = origin.String
	c.Destination = destination.String
	return &c, nil
}

// CreateConnection inserts a new connection record if and only if no
// active connection with the same flight number (case-insensitive)
// exists. The conditional insert closes the check-then-act race: under
// concurrent registration of the same flight, exactly one insert wins and
// the rest observe ErrDuplicateActiveFlight.
func (db *DB) CreateConnection(ctx context.Context, c *models.Connection) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("create", "connections", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO connections (`+connectionColumns+`)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM connections
			WHERE upper(flight) = upper(?) AND is_active
		)`,
		c.ID, c.IsActive, c.FirstContact, c.LastContact, c.Flight,
		c.Location.X, c.Location.Y, c.TrueAltitude, c.Heading,
		c.FreetextEnabled, c.AircraftType, nullable(c.Origin), nullable(c.Destination),
		c.Flight,
	)
	if err != nil {
		return fmt.Errorf("failed to insert connection: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDuplicateActiveFlight
	}

	return nil
}

// UpdateConnection applies the given fields to an active connection and
// bumps last_contact. Returns sql.ErrNoRows if no active connection with
// that id exists.
func (db *DB) UpdateConnection(ctx context.Context, id string, upd *ConnectionUpdate, now time.Time) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "connections", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	var lon, lat *float64
	if upd.Location != nil {
		lon, lat = &upd.Location.X, &upd.Location.Y
	}

	result, err := db.conn.ExecContext(ctx, `
		UPDATE connections SET
			longitude        = COALESCE(?, longitude),
			latitude         = COALESCE(?, latitude),
			true_altitude    = COALESCE(?, true_altitude),
			heading          = COALESCE(?, heading),
			freetext_enabled = COALESCE(?, freetext_enabled),
			aircraft_type    = COALESCE(?, aircraft_type),
			origin           = COALESCE(?, origin),
			destination      = COALESCE(?, destination),
			last_contact     = ?
		WHERE id = ? AND is_active`,
		lon, lat, upd.TrueAltitude, upd.Heading, upd.FreetextEnabled,
		upd.AircraftType, upd.Origin, upd.Destination, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// DisableConnection sets is_active=false on an active connection.
// Returns sql.ErrNoRows if no active connection with that id exists.
func (db *DB) DisableConnection(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("disable", "connections", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE connections SET is_active = false WHERE id = ? AND is_active`, id)
	if err != nil {
		return fmt.Errorf("failed to disable connection: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// GetConnectionByID returns the connection with the given id regardless
// of its active flag. Returns sql.ErrNoRows if absent.
func (db *DB) GetConnectionByID(ctx context.Context, id string) (conn *models.Connection, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_by_id", "connections", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)
	return scanConnection(row)
}

// GetActiveConnectionByFlight returns the active connection with the
// given flight number, compared case-insensitively. Returns
// sql.ErrNoRows if absent.
func (db *DB) GetActiveConnectionByFlight(ctx context.Context, flight string) (conn *models.Connection, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_by_flight", "connections", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections
		WHERE upper(flight) = upper(?) AND is_active`, flight)
	return scanConnection(row)
}

// FindConnectionsByFlightPrefix returns active connections whose flight
// number starts with the given prefix, case-insensitive, ordered by
// flight ascending and capped at 50 results.
func (db *DB) FindConnectionsByFlightPrefix(ctx context.Context, prefix string) (conns []models.Connection, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("find_by_prefix", "connections", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM connections
		WHERE upper(flight) LIKE upper(?) ESCAPE '\' AND is_active
		ORDER BY flight ASC
		LIMIT 50`,
		escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search connections: %w", err)
	}
	defer rows.Close()

	return collectConnections(rows)
}

// CountActiveConnections returns the number of active connections.
func (db *DB) CountActiveConnections(ctx context.Context) (count int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("count_active", "connections", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM connections WHERE is_active`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count connections: %w", err)
	}
	return count, nil
}

// ListActiveConnections returns one page of active connections inside the
// bounding box, ordered by first_contact ascending, plus the total
// matching count ignoring pagination.
func (db *DB) ListActiveConnections(ctx context.Context, take, skip int, bounds geo.Bounds) (conns []models.Connection, total int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list_active", "connections", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	where := ` FROM connections
		WHERE is_active
		AND longitude BETWEEN ? AND ?
		AND latitude BETWEEN ? AND ?`
	args := []interface{}{bounds.West, bounds.East, bounds.South, bounds.North}

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count matching connections: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+connectionColumns+where+`
		ORDER BY first_contact ASC
		LIMIT ? OFFSET ?`,
		append(args, take, skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	conns, err = collectConnections(rows)
	if err != nil {
		return nil, 0, err
	}
	return conns, total, nil
}

// SweepStaleConnections deactivates every active connection whose
// last_contact is older than the cutoff, as a single bulk conditional
// update, and returns the number of affected rows.
func (db *DB) SweepStaleConnections(ctx context.Context, cutoff time.Time) (affected int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("sweep", "connections", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE connections SET is_active = false
		WHERE is_active AND last_contact < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale connections: %w", err)
	}

	return result.RowsAffected()
}

// collectConnections drains a connection result set.
func collectConnections(rows *sql.Rows) ([]models.Connection, error) {
	conns := []models.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("connection rows error: %w", err)
	}
	return conns, nil
}

// nullable maps empty strings to NULL so optional columns stay NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// escapeLike escapes LIKE wildcards in user-supplied search input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
