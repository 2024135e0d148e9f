package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/framework/logging"
)

func TestToLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, logging.ToLevel(name), name)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLogger("info", logging.HandlerJSON, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("resolved", "id", "fixtures.Config")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "resolved", record["msg"])
	assert.Equal(t, "fixtures.Config", record["id"])
	assert.Contains(t, record, "source")
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLogger("debug", logging.HandlerText, &buf)
	require.NoError(t, err)

	logger.Debug("candidates", "count", 3)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "count=3")
}

func TestNewLogger_TintWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLogger("warn", logging.HandlerTint, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("cache miss", "key", "autowire.services")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "cache miss")
	assert.Contains(t, out, "key=autowire.services")
	assert.NotContains(t, out, "\x1b[", "colors must be off for non-terminal writers")
}

func TestNewLogger_UnknownHandler(t *testing.T) {
	_, err := logging.NewLogger("info", "xml", &bytes.Buffer{})
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestDiscard(t *testing.T) {
	logger := logging.Discard()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
