package credvault

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/credvault/identity"
	internalaudit "github.com/MrEthical07/credvault/internal/audit"
)

// TokenType is the scheme reported alongside issued access envelopes.
const TokenType = "Bearer"

// RegisterInput carries the fields of a registration. Validation of shape and password
// policy happens before the engine is reached.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// RegisterResult is returned by [Engine.Register].
type RegisterResult struct {
	Identity  identity.Public `json:"user"`
	ExpiresIn int64           `json:"expiresIn"`
}

// TokenPair is the caller-facing view of one issuance.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	TokenPair
	Identity identity.Public `json:"user"`
}

// RefreshResult is returned by [Engine.Refresh].
type RefreshResult struct {
	TokenPair
}

// LogoutResult reports what logout managed to do. BlocklistFailed is set when the
// refresh chain was revoked but the envelope could not be blocklisted.
type LogoutResult struct {
	RevokedRefreshTokens int64
	BlockedTokenID       string
	BlocklistFailed      bool
}

// PurgeResult counts rows removed by [Engine.PurgeExpired].
type PurgeResult struct {
	BlocklistEntries int64
	RefreshRecords   int64
	Duration         time.Duration
}

// AuditEvent is the structured record emitted for security-relevant operations.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the engine's async dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink writes audit events through a slog.Logger.
type SlogSink = internalaudit.SlogSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink returns a sink logging through logger, or slog.Default when nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}

var _ AuditSink = (*SlogSink)(nil)

// SubjectAllowFunc is consulted during refresh before a replacement pair is minted.
type SubjectAllowFunc func(ctx context.Context, subjectID string) error
