package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlogConfigJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogConfig(SlogConfig{Level: LevelWarn, Format: FormatJSON, Writer: &buf})

	l.Info("dropped")
	l.Warn("kept", "subject_id", "u-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "u-1", line["subject_id"])
}

func TestNewSlogConfigText(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogConfig(SlogConfig{Level: "bogus", Format: FormatText, Writer: &buf})

	l.Debug("hidden")
	l.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestContextLogger(t *testing.T) {
	assert.Same(t, slog.Default(), GetLogger(context.Background()))

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := SetLogger(context.Background(), custom)
	assert.Same(t, custom, GetLogger(ctx))

	fallback := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	assert.Same(t, custom, FromContextOr(ctx, fallback))
	assert.Same(t, fallback, FromContextOr(context.Background(), fallback))
	assert.Same(t, slog.Default(), FromContextOr(context.Background(), nil))
}
