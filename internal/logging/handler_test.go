// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxstudio/fluxstudio/pkg/errutil"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Service: "fluxstudio", Version: "1.2.0"}, &buf)
	require.NoError(t, err)

	logger.Info("world ready", "objects", 3)

	entry := decode(t, &buf)
	assert.Equal(t, "world ready", entry["msg"])
	assert.Equal(t, "fluxstudio", entry["service"])
	assert.Equal(t, "1.2.0", entry["version"])
	assert.InDelta(t, 3, entry["objects"], 0)
	assert.NotContains(t, entry, "trace_id")
}

func TestSetup_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Service: "sim", Format: "text"}, &buf)
	require.NoError(t, err)

	logger.Info("stepping")
	assert.Contains(t, buf.String(), "msg=stepping")
	assert.Contains(t, buf.String(), "service=sim")
}

func TestSetup_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "warn"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetup_Rejects(t *testing.T) {
	_, err := Setup(Options{Format: "xml"}, nil)
	errutil.AssertErrorCode(t, err, "INVALID_LOG_FORMAT")

	_, err = Setup(Options{Level: "loud"}, nil)
	errutil.AssertErrorCode(t, err, "INVALID_LOG_LEVEL")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestHandler_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Service: "fluxstudio"}, &buf)
	require.NoError(t, err)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(),
		trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID}))

	logger.InfoContext(ctx, "traced")

	entry := decode(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Service: "fluxstudio"}, &buf)
	require.NoError(t, err)

	logger.With("component", "physics").WithGroup("body").Info("added", "id", "b1")

	entry := decode(t, &buf)
	assert.Equal(t, "physics", entry["component"])
	assert.Equal(t, "fluxstudio", entry["service"])
	body, ok := entry["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b1", body["id"])
}

func TestSetDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := SetDefault(Options{Service: "fluxstudio"}, &buf)
	require.NoError(t, err)
	assert.Same(t, logger, slog.Default())
}
