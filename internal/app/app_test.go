package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skill-journal/internal/config"
)

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr(" 8080 ")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	addr, err = ListenAddr(":9000")
	require.NoError(t, err)
	assert.Equal(t, ":9000", addr)

	_, err = ListenAddr("  ")
	assert.Error(t, err)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("component", "test"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "test", line["component"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(config.LogConfig{Level: "debug", Format: "TEXT"}, &buf)

	logger.Debug("hello", slog.Int("n", 1))
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "n=1")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}
