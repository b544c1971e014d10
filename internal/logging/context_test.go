package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func fieldMap(fields []zap.Field) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.StringType {
			m[f.Key] = f.String
		}
	}
	return m
}

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_RunTaskRepo(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithTask(ctx, "Login page")
	ctx = WithRepository(ctx, "acme/web")

	m := fieldMap(ContextFields(ctx))
	assert.Equal(t, "run-1", m["run.id"])
	assert.Equal(t, "Login page", m["task.name"])
	assert.Equal(t, "acme/web", m["repo"])
	assert.NotContains(t, m, "trace_id")
}

func TestContextFields_Trace(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	m := fieldMap(ContextFields(ctx))
	assert.Equal(t, traceID.String(), m["trace_id"])
	assert.Equal(t, spanID.String(), m["span_id"])
}

func TestContextAccessors_Missing(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RunIDFromContext(ctx))
	assert.Empty(t, TaskFromContext(ctx))
	assert.Empty(t, RepositoryFromContext(ctx))
}

func TestWithLogger_FromContext(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	assert.Same(t, tl.Logger, FromContext(ctx))

	nop := FromContext(context.Background())
	require.NotNil(t, nop)
	nop.Info(context.Background(), "discarded")
}

func TestLogger_InjectsContextFields(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithTask(WithRunID(context.Background(), "run-7"), "Search")

	tl.Info(ctx, "task started")

	tl.AssertField(t, "task started", "run.id", "run-7")
	tl.AssertField(t, "task started", "task.name", "Search")
}
