package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/users", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/users", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/users", "GET", "FORBIDDEN")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 1)
	assert.Equal(t, RequestStat{Method: "GET", Path: "/api/users", Status: 200, Count: 2, AvgLatencyMs: 20}, snap.Requests[0])
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, ErrorStat{Method: "GET", Path: "/api/users", Code: "FORBIDDEN", Count: 1}, snap.Errors[0])
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		_ = m.Snapshot()
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("chatty"))
}
