package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("Error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Setup("info", &buf)

	WithComponent("coordinator").Info("hello", "items", 3)

	out := buf.String()
	assert.Contains(t, out, "component=coordinator")
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "items=3")
}

func TestSetupFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup("warn", &buf)

	Get().Info("quiet")
	Get().Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}
