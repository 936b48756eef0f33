package credvault

import (
	"bytes"
	"context"
	"strings"
	"log/slog"
	"sync"
	"testing"
)

type captureSink struct {
	ch chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	return &captureSink{ch: make(chan AuditEvent, buffer)}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	s.ch <- event
}

func (s *captureSink) drain() []AuditEvent {
	var out []AuditEvent
	for {
		select {
		case ev := <-s.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func buildAuditTestEngine(t *testing.T, sink AuditSink) *Engine {
	t.Helper()

	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false

	engine, err := newTestStores().builder(cfg, nil).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return engine
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := newCaptureSink(16)
	engine, err := newTestStores().builder(testConfig(), nil).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	registerAlice(t, engine)
	engine.Close()

	if got := len(sink.drain()); got != 0 {
		t.Fatalf("expected no events, got %d", got)
	}
}

func TestAuditEnabledSinkReceivesEventWithFields(t *testing.T) {
	sink := newCaptureSink(64)
	engine := buildAuditTestEngine(t, sink)
	reg := registerAlice(t, engine)

	ctx := WithRequestID(WithClientIP(context.Background(), "203.0.113.7"), "req-1")
	if _, err := engine.Login(ctx, testEmail, "Wr0ng!Pass"); err == nil {
		t.Fatalf("expected login failure")
	}
	if _, err := engine.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	engine.Close()

	events := sink.drain()
	var failure, success *AuditEvent
	for i := range events {
		switch events[i].EventType {
		case auditEventLoginFailure:
			failure = &events[i]
		case auditEventLoginSuccess:
			success = &events[i]
		}
	}
	if failure == nil || success == nil {
		t.Fatalf("expected login failure and success events, got %+v", events)
	}
	if failure.Success || failure.Error != string(auditErrInvalidCredentials) || failure.Metadata["reason"] != "password_mismatch" {
		t.Fatalf("unexpected failure event: %+v", failure)
	}
	if !success.Success || success.SubjectID != reg.Identity.ID {
		t.Fatalf("unexpected success event: %+v", success)
	}
	if success.IP != "203.0.113.7" || success.RequestID != "req-1" {
		t.Fatalf("expected request context in event: %+v", success)
	}
	if success.TokenID == "" || success.Timestamp.IsZero() {
		t.Fatalf("expected token id and timestamp: %+v", success)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	buf := &syncBuffer{}
	engine := buildAuditTestEngine(t, NewJSONWriterSink(buf))
	reg := registerAlice(t, engine)

	login, err := engine.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	rotated, err := engine.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, err := engine.Logout(context.Background(), reg.Identity.ID, rotated.AccessToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	engine.Close()

	out := buf.String()
	for _, secret := range []string{testPassword, login.AccessToken, login.RefreshToken, rotated.AccessToken, rotated.RefreshToken} {
		if strings.Contains(out, secret) {
			t.Fatalf("audit output leaked a secret")
		}
	}
	for _, ev := range []string{auditEventRegisterSuccess, auditEventLoginSuccess, auditEventRefreshSuccess, auditEventLogout} {
		if !strings.Contains(out, `"event_type":"`+ev+`"`) {
			t.Fatalf("expected %s in audit output: %s", ev, out)
		}
	}
}

func TestAuditLogoutBlocklistFailureEvent(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64

	sink := newCaptureSink(64)
	stores := newTestStores()
	engine, err := New().
		WithConfig(cfg).
		WithUserStore(stores.users).
		WithRefreshStore(stores.refresh).
		WithBlocklist(failingBlocklist{stores.blocklist}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	reg := registerAlice(t, engine)
	login, err := engine.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := engine.Logout(context.Background(), reg.Identity.ID, login.AccessToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	engine.Close()

	var found bool
	for _, ev := range sink.drain() {
		if ev.EventType == auditEventLogoutBlocklistError {
			found = true
			if ev.Error != string(auditErrUnavailable) || ev.TokenID == "" || ev.SubjectID != reg.Identity.ID {
				t.Fatalf("unexpected event: %+v", ev)
			}
		}
	}
	if !found {
		t.Fatalf("expected %s event", auditEventLogoutBlocklistError)
	}
}

func TestAuditSlogSinkUnknownEmail(t *testing.T) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	engine := buildAuditTestEngine(t, NewSlogSink(logger))
	if _, err := engine.Login(context.Background(), "nobody@example.com", testPassword); err == nil {
		t.Fatalf("expected login failure")
	}
	engine.Close()

	out := buf.String()
	if !strings.Contains(out, `"meta.reason":"unknown_email"`) {
		t.Fatalf("expected unknown_email reason, got %s", out)
	}
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("expected failed event at WARN, got %s", out)
	}
}

func TestAuditErrorCodeMapping(t *testing.T) {
	cases := map[error]AuditErrorCode{
		nil:                           "",
		ErrInvalidCredential:          auditErrInvalidCredentials,
		ErrEmailAlreadyRegistered:     auditErrDuplicate,
		unauthorized(ErrTokenRevoked): auditErrTokenRevoked,
		unauthorized(ErrTokenExpired): auditErrTokenExpired,
		ErrUnauthorized:               auditErrUnauthorized,
		storeFailure(context.DeadlineExceeded): auditErrUnavailable,
		storeFailure(bytes.ErrTooLarge):        auditErrInternal,
	}
	for err, want := range cases {
		if got := auditErrorCode(err); got != want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestAuditDroppedCountsWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = true

	gate := newGateSink()
	engine, err := newTestStores().builder(cfg, nil).WithAuditSink(gate).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		_, _ = engine.Refresh(context.Background(), "unknown-secret")
	}
	if engine.AuditDropped() == 0 {
		t.Fatalf("expected dropped events while sink is blocked")
	}
	close(gate.release)
	engine.Close()
}

type gateSink struct {
	release chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{release: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
