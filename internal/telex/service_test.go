// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package telex

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/flybywiresim/api/internal/auth"
	"github.com/flybywiresim/api/internal/config"
	"github.com/flybywiresim/api/internal/database"
	"github.com/flybywiresim/api/internal/filter"
	"github.com/flybywiresim/api/internal/geo"
	"github.com/flybywiresim/api/internal/models"
)

type capturingNotifier struct {
	notifications chan MessageNotification
}

func newCapturingNotifier() *capturingNotifier {
	return &capturingNotifier{notifications: make(chan MessageNotification, 16)}
}

func (c *capturingNotifier) Name() string { return "capture" }

func (c *capturingNotifier) PublishMessage(_ context.Context, n MessageNotification) error {
	c.notifications <- n
	return nil
}

func (c *capturingNotifier) wait(t *testing.T) MessageNotification {
	t.Helper()
	select {
	case n := <-c.notifications:
		return n
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
		return MessageNotification{}
	}
}

func newTestService(t *testing.T, notifiers ...Notifier) *Service {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "256MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	jwtManager, err := auth.NewJWTManager(&config.AuthConfig{
		Secret:  "0123456789abcdef0123456789abcdef",
		Expires: time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create jwt manager: %v", err)
	}

	return NewService(db, filter.New(), jwtManager, notifiers...)
}

func newCreateRequest(flight string) *models.CreateConnectionRequest {
	alt := 3500.0
	return &models.CreateConnectionRequest{
		Flight:       flight,
		Location:     &models.Point{X: 16.56, Y: 48.12},
		TrueAltitude: &alt,
		Heading:      90,
	}
}

func serviceErrorStatus(t *testing.T, err error) int {
	t.Helper()
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *telex.Error, got %v", err)
	}
	return svcErr.Status
}

func TestAddConnection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.AddConnection(ctx, newCreateRequest("OS355"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	if token.Flight != "OS355" {
		t.Errorf("expected flight OS355 in token, got %s", token.Flight)
	}
	if token.AccessToken == "" || token.Connection == "" {
		t.Error("expected token and connection id to be set")
	}

	conn, err := svc.GetConnection(ctx, token.Connection)
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	if conn.AircraftType != "unknown" {
		t.Errorf("expected default aircraft type, got %q", conn.AircraftType)
	}
	if !conn.FreetextEnabled {
		t.Error("expected freetext to default to enabled")
	}
}

func TestAddConnectionBannedFlight(t *testing.T) {
	svc := newTestService(t)

	for _, flight := range []string{"MH370", "dispatch", "Af447"} {
		_, err := svc.AddConnection(context.Background(), newCreateRequest(flight))
		if status := serviceErrorStatus(t, err); status != http.StatusBadRequest {
			t.Errorf("flight %s: expected 400, got %d", flight, status)
		}
	}
}

func TestAddConnectionDuplicateFlight(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddConnection(ctx, newCreateRequest("OS355")); err != nil {
		t.Fatalf("first AddConnection failed: %v", err)
	}

	_, err := svc.AddConnection(ctx, newCreateRequest("OS355"))
	if status := serviceErrorStatus(t, err); status != http.StatusConflict {
		t.Errorf("expected 409, got %d", status)
	}
}

func TestAddConnectionFreetextOptOut(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	disabled := false
	req := newCreateRequest("OS355")
	req.FreetextEnabled = &disabled

	token, err := svc.AddConnection(ctx, req)
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	conn, err := svc.GetConnection(ctx, token.Connection)
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	if conn.FreetextEnabled {
		t.Error("expected freetext to be disabled")
	}
}

func TestUpdateConnection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.AddConnection(ctx, newCreateRequest("DLH400"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	before, _ := svc.GetConnection(ctx, token.Connection)

	alt := 37000.0
	conn, err := svc.UpdateConnection(ctx, token.Connection, &models.UpdateConnectionRequest{
		Location:     &models.Point{X: 8.57, Y: 50.03},
		TrueAltitude: &alt,
		Heading:      270,
		Origin:       "EDDF",
	})
	if err != nil {
		t.Fatalf("UpdateConnection failed: %v", err)
	}
	if conn.TrueAltitude != 37000 || conn.Heading != 270 || conn.Origin != "EDDF" {
		t.Errorf("update not applied: %+v", conn)
	}
	if conn.LastContact.Before(before.LastContact) {
		t.Error("expected lastContact to advance")
	}
	if conn.Flight != "DLH400" {
		t.Errorf("flight must be immutable, got %s", conn.Flight)
	}
}

func TestUpdateConnectionNotFound(t *testing.T) {
	svc := newTestService(t)

	alt := 1000.0
	_, err := svc.UpdateConnection(context.Background(), "no-such-id", &models.UpdateConnectionRequest{
		Location:     &models.Point{X: 0, Y: 0},
		TrueAltitude: &alt,
	})
	if status := serviceErrorStatus(t, err); status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestDisableConnection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.AddConnection(ctx, newCreateRequest("OS355"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	if err := svc.DisableConnection(ctx, token.Connection); err != nil {
		t.Fatalf("DisableConnection failed: %v", err)
	}

	// Still readable by id, but no longer active.
	conn, err := svc.GetConnection(ctx, token.Connection)
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	if conn.IsActive {
		t.Error("expected connection to be inactive")
	}

	err = svc.DisableConnection(ctx, token.Connection)
	if status := serviceErrorStatus(t, err); status != http.StatusNotFound {
		t.Errorf("expected 404 on repeated disable, got %d", status)
	}
}

func TestListActiveConnections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, flight := range []string{"OS355", "DLH400", "BAW123"} {
		if _, err := svc.AddConnection(ctx, newCreateRequest(flight)); err != nil {
			t.Fatalf("AddConnection %s failed: %v", flight, err)
		}
	}

	// Oversized take is clamped, not rejected.
	page, err := svc.ListActiveConnections(ctx, 1000, 0, geo.WorldBounds())
	if err != nil {
		t.Fatalf("ListActiveConnections failed: %v", err)
	}
	if page.Total != 3 || page.Count != 3 || len(page.Results) != 3 {
		t.Errorf("unexpected page: count=%d total=%d", page.Count, page.Total)
	}

	page, err = svc.ListActiveConnections(ctx, 2, 0, geo.WorldBounds())
	if err != nil {
		t.Fatalf("ListActiveConnections failed: %v", err)
	}
	if page.Count != 2 || page.Total != 3 {
		t.Errorf("expected count=2 total=3, got count=%d total=%d", page.Count, page.Total)
	}
}

func TestListActiveConnectionsInvalidBounds(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ListActiveConnections(context.Background(), 25, 0, geo.Bounds{
		North: -10, South: 10, East: 0, West: 0,
	})
	if status := serviceErrorStatus(t, err); status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestFindConnectionsByFlight(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, flight := range []string{"DLH400", "DLH401", "BAW123"} {
		if _, err := svc.AddConnection(ctx, newCreateRequest(flight)); err != nil {
			t.Fatalf("AddConnection %s failed: %v", flight, err)
		}
	}

	result, err := svc.FindConnectionsByFlight(ctx, "DLH400")
	if err != nil {
		t.Fatalf("FindConnectionsByFlight failed: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.FullMatch == nil || result.FullMatch.Flight != "DLH400" {
		t.Errorf("expected verbatim full match, got %+v", result.FullMatch)
	}

	// Prefix search is case-insensitive, the full match is not.
	result, err = svc.FindConnectionsByFlight(ctx, "dlh400")
	if err != nil {
		t.Fatalf("FindConnectionsByFlight failed: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Errorf("expected 2 case-insensitive matches, got %d", len(result.Matches))
	}
	if result.FullMatch != nil {
		t.Errorf("expected no full match for lowercased query, got %+v", result.FullMatch)
	}
}

func TestCountActiveConnections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	count, err := svc.CountActiveConnections(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected 0, got %d (err %v)", count, err)
	}

	token, err := svc.AddConnection(ctx, newCreateRequest("OS355"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	if _, err := svc.AddConnection(ctx, newCreateRequest("DLH400")); err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	if err := svc.DisableConnection(ctx, token.Connection); err != nil {
		t.Fatalf("DisableConnection failed: %v", err)
	}

	count, err = svc.CountActiveConnections(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected 1, got %d (err %v)", count, err)
	}
}

func TestSendMessage(t *testing.T) {
	notifier := newCapturingNotifier()
	svc := newTestService(t, notifier)
	ctx := context.Background()

	sender, err := svc.AddConnection(ctx, newCreateRequest("DLH400"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	if _, err := svc.AddConnection(ctx, newCreateRequest("DLH401")); err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	msg, err := svc.SendMessage(ctx, sender.Connection, &models.SendMessageRequest{
		To:      "DLH401",
		Message: "request FL390 due weather",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if msg.Received {
		t.Error("freshly sent message must not be marked received")
	}
	if msg.IsProfane {
		t.Error("clean message flagged as profane")
	}

	n := notifier.wait(t)
	if n.From != "DLH400" || n.To != "DLH401" || n.Blocked {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestSendMessageShadowBlocked(t *testing.T) {
	notifier := newCapturingNotifier()
	svc := newTestService(t, notifier)
	ctx := context.Background()

	sender, err := svc.AddConnection(ctx, newCreateRequest("DLH400"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	recipient, err := svc.AddConnection(ctx, newCreateRequest("DLH401"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	msg, err := svc.SendMessage(ctx, sender.Connection, &models.SendMessageRequest{
		To:      "DLH401",
		Message: "check out bit.ly/xyz",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	// The sender sees a normal response.
	if msg.Received {
		t.Error("sender must not learn the message was blocked")
	}

	// Sinks still see it, flagged.
	n := notifier.wait(t)
	if !n.Blocked {
		t.Error("expected notification to be flagged as blocked")
	}

	// The recipient never does.
	msgs, err := svc.FetchMessages(ctx, recipient.Connection, true)
	if err != nil {
		t.Fatalf("FetchMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("blocked message reached recipient: %+v", msgs)
	}
}

func TestSendMessageProfanityRedactedOnFetch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sender, err := svc.AddConnection(ctx, newCreateRequest("DLH400"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	recipient, err := svc.AddConnection(ctx, newCreateRequest("DLH401"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	msg, err := svc.SendMessage(ctx, sender.Connection, &models.SendMessageRequest{
		To:      "DLH401",
		Message: "what the fuck is this",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if !msg.IsProfane {
		t.Error("expected message to be flagged as profane")
	}

	msgs, err := svc.FetchMessages(ctx, recipient.Connection, false)
	if err != nil {
		t.Fatalf("FetchMessages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if strings.Contains(msgs[0].Message, "fuck") {
		t.Errorf("profanity not redacted: %q", msgs[0].Message)
	}
	if !strings.Contains(msgs[0].Message, "****") {
		t.Errorf("expected masked text, got %q", msgs[0].Message)
	}
}

func TestSendMessageRecipientChecks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sender, err := svc.AddConnection(ctx, newCreateRequest("DLH400"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	// Unknown recipient.
	_, err = svc.SendMessage(ctx, sender.Connection, &models.SendMessageRequest{
		To: "BAW999", Message: "hello",
	})
	if status := serviceErrorStatus(t, err); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown recipient, got %d", status)
	}

	// Recipient with freetext disabled looks identical to an unknown one.
	disabled := false
	req := newCreateRequest("DLH401")
	req.FreetextEnabled = &disabled
	if _, err := svc.AddConnection(ctx, req); err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	_, err = svc.SendMessage(ctx, sender.Connection, &models.SendMessageRequest{
		To: "DLH401", Message: "hello",
	})
	if status := serviceErrorStatus(t, err); status != http.StatusNotFound {
		t.Errorf("expected 404 for freetext-disabled recipient, got %d", status)
	}
}

func TestSendMessageInactiveSender(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sender, err := svc.AddConnection(ctx, newCreateRequest("DLH400"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	if _, err := svc.AddConnection(ctx, newCreateRequest("DLH401")); err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	if err := svc.DisableConnection(ctx, sender.Connection); err != nil {
		t.Fatalf("DisableConnection failed: %v", err)
	}

	_, err = svc.SendMessage(ctx, sender.Connection, &models.SendMessageRequest{
		To: "DLH401", Message: "hello",
	})
	if status := serviceErrorStatus(t, err); status != http.StatusNotFound {
		t.Errorf("expected 404 for inactive sender, got %d", status)
	}
}

func TestFetchMessagesAcknowledge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sender, err := svc.AddConnection(ctx, newCreateRequest("DLH400"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	recipient, err := svc.AddConnection(ctx, newCreateRequest("DLH401"))
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	if _, err := svc.SendMessage(ctx, sender.Connection, &models.SendMessageRequest{
		To: "DLH401", Message: "hello",
	}); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	// Peek without acknowledging keeps the message pending.
	msgs, err := svc.FetchMessages(ctx, recipient.Connection, false)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("expected 1 pending message, got %d (err %v)", len(msgs), err)
	}
	msgs, err = svc.FetchMessages(ctx, recipient.Connection, true)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("expected 1 pending message, got %d (err %v)", len(msgs), err)
	}
	msgs, err = svc.FetchMessages(ctx, recipient.Connection, true)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty mailbox after acknowledge, got %d (err %v)", len(msgs), err)
	}
}
