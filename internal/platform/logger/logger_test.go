package logger_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/scry-flashcards/internal/config"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	tests := []struct {
		name      string
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{name: "debug level", level: "debug", wantDebug: true, wantInfo: true},
		{name: "info level", level: "info", wantDebug: false, wantInfo: true},
		{name: "error level", level: "ERROR", wantDebug: false, wantInfo: false},
		{name: "invalid level falls back to info", level: "chatty", wantDebug: false, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &logger.TestLogBuffer{}
			l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tt.level}, buf)
			require.NoError(t, err)
			require.NotNil(t, l)

			l.Debug("debug message")
			l.Info("info message")

			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "debug message"))
			assert.Equal(t, tt.wantInfo, strings.Contains(buf.String(), "info message"))
			assert.Same(t, l, slog.Default())
		})
	}
}

func TestSetupWritesJSON(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "info"}, buf)
	require.NoError(t, err)

	l.Info("session completed", slog.String("session_id", "abc"))

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session completed", entries[0]["msg"])
	assert.Equal(t, "abc", entries[0]["session_id"])
	assert.Equal(t, "INFO", entries[0]["level"])
}

func TestContextLogger(t *testing.T) {
	fallback, _ := logger.NewTestLogger()
	scoped, buf := logger.NewTestLogger()

	t.Run("empty context returns fallback", func(t *testing.T) {
		assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	})

	t.Run("nil fallback returns default", func(t *testing.T) {
		assert.Same(t, slog.Default(), logger.FromContextOrDefault(context.Background(), nil))
		assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
	})

	t.Run("context logger wins", func(t *testing.T) {
		ctx := logger.WithLogger(context.Background(), scoped)
		got := logger.FromContextOrDefault(ctx, fallback)
		assert.Same(t, scoped, got)

		got.Info("from context")
		assert.Contains(t, buf.String(), "from context")
	})
}
