// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flybywiresim/api/internal/metrics"
	"github.com/flybywiresim/api/internal/models"
)

// InsertMessage persists a relay message. Messages are append-only; the
// received flag may already be true for shadow-blocked messages.
func (db *DB) InsertMessage(ctx context.Context, m *models.Message) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "messages", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO messages (id, created_at, from_id, to_id, message, is_profane, received)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CreatedAt, m.From, m.To, m.Message, m.IsProfane, m.Received,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// FetchUnreceivedMessages returns all messages addressed to the given
// connection with received=false, oldest first.
func (db *DB) FetchUnreceivedMessages(ctx context.Context, toID string) (msgs []models.Message, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("fetch_unreceived", "messages", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, created_at, from_id, to_id, message, is_profane, received
		FROM messages
		WHERE to_id = ? AND NOT received
		ORDER BY created_at ASC`, toID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	msgs = []models.Message{}
	for rows.Next() {
		var m models.Message
		if err = rows.Scan(&m.ID, &m.CreatedAt, &m.From, &m.To, &m.Message, &m.IsProfane, &m.Received); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("message rows error: %w", err)
	}
	return msgs, nil
}

// AcknowledgeMessages marks all unreceived messages addressed to the
// given connection as received, in one bulk update, and returns the
// number of acknowledged messages.
func (db *DB) AcknowledgeMessages(ctx context.Context, toID string) (affected int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("acknowledge", "messages", time.Since(start), err) }()

	ctx, cancel := queryContext(ctx)
	defer cancel()

	var result sql.Result
	result, err = db.conn.ExecContext(ctx,
		`UPDATE messages SET received = true WHERE to_id = ? AND NOT received`, toID)
	if err != nil {
		return 0, fmt.Errorf("failed to acknowledge messages: %w", err)
	}

	return result.RowsAffected()
}
