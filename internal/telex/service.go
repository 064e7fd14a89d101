// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package telex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flybywiresim/api/internal/auth"
	"github.com/flybywiresim/api/internal/database"
	"github.com/flybywiresim/api/internal/filter"
	"github.com/flybywiresim/api/internal/geo"
	"github.com/flybywiresim/api/internal/logging"
	"github.com/flybywiresim/api/internal/metrics"
	"github.com/flybywiresim/api/internal/models"
)

const (
	// maxPageSize caps the take parameter on connection listings.
	maxPageSize = 25

	// publishTimeout bounds the fire-and-forget notification publish.
	publishTimeout = 10 * time.Second
)

// MessageNotification is what gets pushed to external sinks for every
// message passing through the system, including shadow-blocked ones.
type MessageNotification struct {
	Message models.Message
	From    string
	To      string
	Blocked bool
}

// Notifier delivers message notifications to an external sink. Delivery
// is best effort; an error never affects message handling.
type Notifier interface {
	Name() string
	PublishMessage(ctx context.Context, n MessageNotification) error
}

// Service implements the TELEX connection registry and messaging rules
// on top of the persistence layer.
type Service struct {
	db        *database.DB
	filter    *filter.Filter
	auth      *auth.JWTManager
	notifiers []Notifier
}

func NewService(db *database.DB, f *filter.Filter, jwtManager *auth.JWTManager, notifiers ...Notifier) *Service {
	return &Service{
		db:        db,
		filter:    f,
		auth:      jwtManager,
		notifiers: notifiers,
	}
}

// AddConnection registers a new flight and hands back a bearer token
// scoped to the created connection.
func (s *Service) AddConnection(ctx context.Context, req *models.CreateConnectionRequest) (*models.FlightToken, error) {
	if s.filter.IsBannedIdentifier(req.Flight) {
		metrics.ConnectionsRejected.WithLabelValues("banned_flight").Inc()
		msg := fmt.Sprintf("User tried to use banned flight number: '%s'", req.Flight)
		logging.Info().Str("flight", req.Flight).Msg(msg)
		return nil, &Error{Status: 400, Message: msg}
	}

	now := time.Now().UTC()
	conn := &models.Connection{
		ID:              uuid.NewString(),
		IsActive:        true,
		FirstContact:    now,
		LastContact:     now,
		Flight:          req.Flight,
		Location:        *req.Location,
		TrueAltitude:    *req.TrueAltitude,
		Heading:         req.Heading,
		FreetextEnabled: true,
		AircraftType:    req.AircraftType,
		Origin:          req.Origin,
		Destination:     req.Destination,
	}
	if req.FreetextEnabled != nil {
		conn.FreetextEnabled = *req.FreetextEnabled
	}
	if conn.AircraftType == "" {
		conn.AircraftType = "unknown"
	}

	if err := s.db.CreateConnection(ctx, conn); err != nil {
		if errors.Is(err, database.ErrDuplicateActiveFlight) {
			metrics.ConnectionsRejected.WithLabelValues("duplicate_flight").Inc()
			logging.Error().Str("flight", req.Flight).Msg("flight number already in use")
			return nil, conflict("An active flight with the number '%s' is already in use", req.Flight)
		}
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	token, err := s.auth.RegisterFlight(conn.Flight, conn.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue flight token: %w", err)
	}

	metrics.ConnectionsRegistered.Inc()
	logging.Info().
		Str("flight", conn.Flight).
		Str("connection_id", conn.ID).
		Msg("registered new connection")

	return token, nil
}

// UpdateConnection refreshes the position report of an active
// connection and bumps its last contact timestamp.
func (s *Service) UpdateConnection(ctx context.Context, connectionID string, req *models.UpdateConnectionRequest) (*models.Connection, error) {
	upd := &database.ConnectionUpdate{
		Location:        req.Location,
		TrueAltitude:    req.TrueAltitude,
		Heading:         &req.Heading,
		FreetextEnabled: req.FreetextEnabled,
	}
	if req.AircraftType != "" {
		upd.AircraftType = &req.AircraftType
	}
	if req.Origin != "" {
		upd.Origin = &req.Origin
	}
	if req.Destination != "" {
		upd.Destination = &req.Destination
	}

	err := s.db.UpdateConnection(ctx, connectionID, upd, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		logging.Error().Str("connection_id", connectionID).Msg("update for unknown or inactive connection")
		return nil, notFound("Active flight with ID '%s' does not exist", connectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update connection: %w", err)
	}

	logging.Debug().Str("connection_id", connectionID).Msg("updated connection")

	conn, err := s.db.GetConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated connection: %w", err)
	}
	return conn, nil
}

// DisableConnection marks an active connection inactive. The record
// stays readable by id afterwards.
func (s *Service) DisableConnection(ctx context.Context, connectionID string) error {
	err := s.db.DisableConnection(ctx, connectionID)
	if errors.Is(err, sql.ErrNoRows) {
		logging.Error().Str("connection_id", connectionID).Msg("disable for unknown or inactive connection")
		return notFound("Active flight with ID '%s' does not exist", connectionID)
	}
	if err != nil {
		return fmt.Errorf("failed to disable connection: %w", err)
	}

	logging.Info().Str("connection_id", connectionID).Msg("disabled connection")
	return nil
}

// GetConnection looks up a connection by id regardless of its active
// state.
func (s *Service) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	conn, err := s.db.GetConnectionByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Flight with ID '%s' does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	return conn, nil
}

// getActiveConnection looks up a connection by id and requires it to be
// active.
func (s *Service) getActiveConnection(ctx context.Context, id string) (*models.Connection, error) {
	conn, err := s.db.GetConnectionByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Active flight with ID '%s' does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	if !conn.IsActive {
		return nil, notFound("Active flight with ID '%s' does not exist", id)
	}
	return conn, nil
}

// ListActiveConnections returns a page of active connections inside the
// given bounding box, oldest first.
func (s *Service) ListActiveConnections(ctx context.Context, take, skip int, bounds geo.Bounds) (*models.PaginatedConnections, error) {
	if err := bounds.Validate(); err != nil {
		return nil, badRequest("invalid bounds: %s", err)
	}
	if take <= 0 || take > maxPageSize {
		take = maxPageSize
	}
	if skip < 0 {
		skip = 0
	}

	conns, total, err := s.db.ListActiveConnections(ctx, take, skip, bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	return &models.PaginatedConnections{
		Results: conns,
		Count:   len(conns),
		Total:   total,
	}, nil
}

// FindConnectionsByFlight searches active connections whose flight
// number starts with the query. FullMatch is set when one of the
// matches equals the query verbatim.
func (s *Service) FindConnectionsByFlight(ctx context.Context, query string) (*models.ConnectionSearchResult, error) {
	matches, err := s.db.FindConnectionsByFlightPrefix(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search connections: %w", err)
	}

	result := &models.ConnectionSearchResult{Matches: matches}
	for i := range matches {
		if matches[i].Flight == query {
			result.FullMatch = &matches[i]
			break
		}
	}
	return result, nil
}

// CountActiveConnections returns the number of currently active
// connections.
func (s *Service) CountActiveConnections(ctx context.Context) (int, error) {
	count, err := s.db.CountActiveConnections(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count connections: %w", err)
	}
	return count, nil
}

// SendMessage stores a message from the authenticated sender to the
// recipient flight. Messages containing a blocked phrase are shadow
// blocked: persisted as already received so the recipient never sees
// them, while the sender gets a normal-looking response.
func (s *Service) SendMessage(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Message, error) {
	sender, err := s.getActiveConnection(ctx, senderID)
	if err != nil {
		return nil, err
	}

	recipient, err := s.db.GetActiveConnectionByFlight(ctx, req.To)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !recipient.FreetextEnabled) {
		logging.Error().Str("to", req.To).Msg("message to unknown or freetext-disabled flight")
		return nil, notFound("Active flight '%s' does not exist", req.To)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		From:      sender.ID,
		To:        recipient.ID,
		Message:   req.Message,
		IsProfane: s.filter.IsProfane(req.Message),
	}
	blocked := s.filter.ContainsBlockedPhrase(req.Message)

	// Sinks see every message, blocked or not.
	s.publish(MessageNotification{
		Message: *msg,
		From:    sender.Flight,
		To:      recipient.Flight,
		Blocked: blocked,
	})

	if blocked {
		msg.Received = true
		metrics.MessagesBlocked.Inc()
		logging.Warn().
			Str("from", sender.Flight).
			Str("to", recipient.Flight).
			Msg("message contains blocked phrase, shadow blocking")
	}
	if msg.IsProfane {
		metrics.MessagesProfane.Inc()
	}

	if err := s.db.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	metrics.MessagesSent.Inc()

	logging.Debug().
		Str("from", sender.Flight).
		Str("to", recipient.Flight).
		Msg("stored message")

	// The sender must not learn whether the message was blocked.
	out := *msg
	out.Received = false
	return &out, nil
}

// FetchMessages returns the pending messages for a connection, with
// profanity redacted. When acknowledge is set the messages are marked
// received and will not be returned again.
func (s *Service) FetchMessages(ctx context.Context, connectionID string, acknowledge bool) ([]models.Message, error) {
	msgs, err := s.db.FetchUnreceivedMessages(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	if acknowledge && len(msgs) > 0 {
		if _, err := s.db.AcknowledgeMessages(ctx, connectionID); err != nil {
			return nil, fmt.Errorf("failed to acknowledge messages: %w", err)
		}
	}

	for i := range msgs {
		msgs[i].Message = s.filter.Redact(msgs[i].Message)
	}

	if len(msgs) > 0 {
		metrics.MessagesFetched.Add(float64(len(msgs)))
		logging.Debug().
			Str("connection_id", connectionID).
			Int("count", len(msgs)).
			Bool("acknowledge", acknowledge).
			Msg("fetched messages")
	}
	return msgs, nil
}

// publish fans a notification out to all sinks without blocking the
// request path. Failures are logged and dropped.
func (s *Service) publish(n MessageNotification) {
	for _, notifier := range s.notifiers {
		go func(nt Notifier) {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()

			if err := nt.PublishMessage(ctx, n); err != nil {
				logging.Warn().
					Err(err).
					Str("sink", nt.Name()).
					Msg("failed to publish message notification")
			}
		}(notifier)
	}
}
