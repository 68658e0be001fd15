package parser

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLogger(t *testing.T) {
	l := NopLogger{}
	l.Debug("message", "key", "value")
	l.Info("message", "key", "value")
	l.Warn("message", "key", "value")
	l.Error("message", "key", "value")

	_, ok := l.With("key", "value").(NopLogger)
	assert.True(t, ok, "With should return a NopLogger")
}

func TestSlogAdapter(t *testing.T) {
	newAdapter := func(level slog.Level) (*SlogAdapter, *bytes.Buffer) {
		var buf bytes.Buffer
		h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
		return NewSlogAdapter(slog.New(h)), &buf
	}

	t.Run("nil uses default", func(t *testing.T) {
		a := NewSlogAdapter(nil)
		require.NotNil(t, a.logger)
	})

	tests := []struct {
		name  string
		log   func(Logger)
		level string
		attr  string
	}{
		{"debug", func(l Logger) { l.Debug("loaded document", "path", "a.yaml") }, "DEBUG", "path=a.yaml"},
		{"info", func(l Logger) { l.Info("normalized", "schemas", 3) }, "INFO", "schemas=3"},
		{"warn", func(l Logger) { l.Warn("broken reference", "ref", "#/x") }, "WARN", "ref=#/x"},
		{"error", func(l Logger) { l.Error("load failed", "path", "b.yaml") }, "ERROR", "path=b.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, buf := newAdapter(slog.LevelDebug)
			tt.log(a)
			assert.Contains(t, buf.String(), tt.level)
			assert.Contains(t, buf.String(), tt.attr)
		})
	}

	t.Run("With prepends attributes", func(t *testing.T) {
		a, buf := newAdapter(slog.LevelDebug)
		a.With("stage", "deref").Info("done")
		assert.Contains(t, buf.String(), "stage=deref")
	})

	t.Run("level filtering", func(t *testing.T) {
		a, buf := newAdapter(slog.LevelWarn)
		a.Debug("hidden")
		a.Info("hidden")
		assert.Empty(t, buf.String())
	})
}

func TestOrNop(t *testing.T) {
	_, ok := OrNop(nil).(NopLogger)
	assert.True(t, ok)

	a := NewSlogAdapter(nil)
	assert.Same(t, a, OrNop(a))
}
