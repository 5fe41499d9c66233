package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/pkg/contextkeys"
	"context"
)

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("client_id", 42).Info("client converted")

	entry := lastLogLine(t, &buf)
	assert.Equal(t, "client converted", entry["msg"])
	assert.Equal(t, float64(42), entry["client_id"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warnf("kept %d", 1)
	entry := lastLogLine(t, &buf)
	assert.Equal(t, "kept 1", entry["msg"])
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(assert.AnError).Error("update failed")
	entry := lastLogLine(t, &buf)
	assert.Equal(t, assert.AnError.Error(), entry["error"])

	// nil error adds nothing
	assert.Same(t, logger, logger.WithError(nil))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warn"))
	assert.Equal(t, ErrorLevel, ParseLogLevel("error"))
	assert.Equal(t, InfoLevel, ParseLogLevel("verbose"))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := contextkeys.WithLogger(context.Background(), logger)
	ctx = contextkeys.WithRequestID(ctx, "req-123")

	FromContext(ctx).Info("scoped")
	entry := lastLogLine(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
}
