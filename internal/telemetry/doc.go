// Package telemetry provides OpenTelemetry tracing and log export for
// taskpulse.
//
// A run produces one root span ("pipeline.run") with a child span per task
// and per commit summary. Spans, and log records when telemetry.logs is set,
// are exported over OTLP (gRPC or HTTP) to a local collector.
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	ctx, span := tel.Tracer("taskpulse/pipeline").Start(ctx, "pipeline.run")
//	defer span.End()
//
// Telemetry failures do not stop a run. A provider that cannot be built
// leaves the instance degraded with no-op tracers.
//
// Tests use TestTelemetry, which records spans in memory:
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
