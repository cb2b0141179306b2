package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompter/internal/logging"
)

func TestNew_RespectsLevel(t *testing.T) {
	testCases := []struct {
		level       string
		expectDebug bool
		expectInfo  bool
		expectWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"WARN", false, false, true},
		{"error", false, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, buf)
			require.NotNil(t, logger)

			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")

			out := buf.String()
			assert.Equal(t, tc.expectDebug, bytes.Contains([]byte(out), []byte("debug message")))
			assert.Equal(t, tc.expectInfo, bytes.Contains([]byte(out), []byte("info message")))
			assert.Equal(t, tc.expectWarn, bytes.Contains([]byte(out), []byte("warn message")))
		})
	}
}

func TestNew_InvalidLevelWarnsAndFallsBack(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("chatty", buf)

	logger.Info("still logged")
	assert.Contains(t, buf.String(), "invalid log level")
	assert.Contains(t, buf.String(), "still logged")
}

func TestParseLevel(t *testing.T) {
	lvl, ok := logging.ParseLevel("")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelInfo, lvl)

	lvl, ok = logging.ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, ok = logging.ParseLevel("loud")
	assert.False(t, ok)
}

func TestWithAndFrom(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf).With("component", "test")

	ctx := logging.With(context.Background(), logger)
	assert.Same(t, logger, logging.From(ctx))

	logging.From(ctx).Info("context message")
	assert.Contains(t, buf.String(), "context message")
	assert.Contains(t, buf.String(), "component")
}

func TestFromFallsBackToDefault(t *testing.T) {
	original := logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	custom := logging.New("info", &bytes.Buffer{})
	logging.SetDefault(custom)
	assert.Same(t, custom, logging.From(context.Background()))

	logging.SetDefault(nil)
	assert.Same(t, custom, logging.Default())
}
