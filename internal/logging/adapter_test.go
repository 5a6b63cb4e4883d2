package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSlogAdapter_WithNil(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	assert.NotNil(t, adapter.logger)
}

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var l Logger = NewSlogAdapter(logger)
	l.Debug("debug message", "key", "value")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
}

func TestSlogAdapter_ServiceLogger(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(WithService(slog.New(slog.NewTextHandler(&buf, nil)), "flow"))
	adapter.Info("ran", Operation("run_flow"))

	assert.Contains(t, buf.String(), "service=flow")
	assert.Contains(t, buf.String(), "operation=run_flow")
}

func TestDefaultLogger(t *testing.T) {
	assert.Same(t, slog.Default(), DefaultLogger().logger)
}
