package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerWritesJSONToFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := filepath.Join(t.TempDir(), "logs")
	logger, closeFn, err := InitLogger(dir, false)
	require.NoError(t, err)

	logger.Info("hello", "session_id", "s1")
	logger.Debug("hidden")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, "fantasychat.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"session_id":"s1"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestInitLoggerDebugLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	logger, closeFn, err := InitLogger(dir, true)
	require.NoError(t, err)
	logger.Debug("visible")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, "fantasychat.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}

func TestInitTelemetryDisabled(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "unused")
	tracer, meter, cleanup, err := InitTelemetry(context.Background(), dir, false)
	require.NoError(t, err)
	require.NotNil(t, tracer)
	require.NotNil(t, meter)
	cleanup()

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestInitTelemetryEnabled(t *testing.T) {
	dir := t.TempDir()
	tracer, meter, cleanup, err := InitTelemetry(context.Background(), dir, true)
	require.NoError(t, err)

	_, span := tracer.Start(context.Background(), "test_span")
	span.End()
	counter, err := meter.Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	cleanup()

	data, err := os.ReadFile(filepath.Join(dir, "fantasychat_traces.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "test_span")
}
