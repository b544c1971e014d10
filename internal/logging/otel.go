// internal/logging/otel.go
package logging

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// newOTelCore bridges log entries to an OTLP LoggerProvider. The bridge
// serializes fields itself, so redaction is applied per field before the
// entry reaches it.
func newOTelCore(cfg *Config, provider log.LoggerProvider, redact redactor) zapcore.Core {
	return &redactingCore{
		Core:   otelzap.NewCore("taskpulse", otelzap.WithLoggerProvider(provider)),
		level:  cfg.Level,
		redact: redact,
	}
}

type redactingCore struct {
	zapcore.Core
	level  zapcore.LevelEnabler
	redact redactor
}

func (c *redactingCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{
		Core:   c.Core.With(c.clean(fields)),
		level:  c.level,
		redact: c.redact,
	}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, c.clean(fields))
}

func (c *redactingCore) clean(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = c.redact.field(f)
	}
	return out
}
