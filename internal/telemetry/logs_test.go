package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type memoryLogExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *memoryLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memoryLogExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryLogExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryLogExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestNew_LogsDisabledByDefault(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	tel, err := New(context.Background(), cfg, WithTraceExporter(tracetest.NewInMemoryExporter()))
	require.NoError(t, err)
	assert.Nil(t, tel.LoggerProvider())
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_WithLogExporter(t *testing.T) {
	exp := &memoryLogExporter{}
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Logs = true

	tel, err := New(context.Background(), cfg,
		WithTraceExporter(tracetest.NewInMemoryExporter()),
		WithLogExporter(exp))
	require.NoError(t, err)
	require.NotNil(t, tel.LoggerProvider())

	var rec otellog.Record
	rec.SetBody(otellog.StringValue("run complete"))
	rec.SetSeverity(otellog.SeverityInfo)
	tel.LoggerProvider().Logger("test").Emit(context.Background(), rec)

	require.NoError(t, tel.ForceFlush(context.Background()))
	assert.Equal(t, []string{"run complete"}, exp.bodies())
	require.NoError(t, tel.Shutdown(context.Background()))
}
