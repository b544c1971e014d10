// internal/logging/core.go
package logging

import (
	"fmt"
	"os"

	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newCore builds the encoder, redaction, and sampling stack over sink,
// teeing into the OTLP bridge when otelProvider is non-nil.
func newCore(cfg *Config, sink zapcore.WriteSyncer, otelProvider log.LoggerProvider) (zapcore.Core, error) {
	encoder, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
	if err != nil {
		return nil, fmt.Errorf("failed to create redacting encoder: %w", err)
	}

	var core zapcore.Core = zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(cfg.Level))
	if otelProvider != nil {
		core = zapcore.NewTee(core, newOTelCore(cfg, otelProvider, encoder.rules))
	}
	return newSampledCore(core, cfg.Sampling), nil
}

// openSink resolves the configured output. Files are appended to.
func openSink(output string) (zapcore.WriteSyncer, func(), error) {
	switch output {
	case OutputStderr, "":
		return zapcore.Lock(os.Stderr), func() {}, nil
	case OutputStdout:
		return zapcore.Lock(os.Stdout), func() {}, nil
	default:
		return zap.Open(output)
	}
}
