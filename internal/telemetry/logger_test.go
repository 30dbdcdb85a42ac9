package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	cfg := LoggingConfig{Level: "debug", Format: "json", Output: "stdout", TimeFormat: "rfc3339"}
	l, err := NewLogger(cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	l.zlog = zerolog.New(&buf).Level(zerolog.DebugLevel)

	l.WithOperationID("op-1").Info("started")
	assert.Contains(t, buf.String(), `"operation_id":"op-1"`)
	assert.Contains(t, buf.String(), `"message":"started"`)
}

func TestLoggerContextRoundTrip(t *testing.T) {
	l, err := NewLogger(DefaultConfig().Logging)
	require.NoError(t, err)

	ctx := l.WithContext(context.Background())
	got := FromContext(ctx)
	assert.Same(t, l, got)
}

func TestFromContextDefaultsWhenAbsent(t *testing.T) {
	got := FromContext(context.Background())
	assert.NotNil(t, got)
}

func TestConfigValidateRejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "nope"
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, ProductionConfig().Validate())
	assert.NoError(t, DevelopmentConfig().Validate())
}
