// internal/logging/sampling.go
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	errorsAndAbove = zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })
	belowErrors    = zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l < zapcore.ErrorLevel })
)

// newSampledCore samples entries below Error. Errors always pass, so a run
// that fails every task still reports every failure.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	sampled := zapcore.NewSamplerWithOptions(
		&gatedCore{Core: core, gate: belowErrors},
		cfg.Tick, cfg.Initial, cfg.Thereafter,
	)
	return zapcore.NewTee(&gatedCore{Core: core, gate: errorsAndAbove}, sampled)
}

// gatedCore passes only levels its gate enables.
type gatedCore struct {
	zapcore.Core
	gate zapcore.LevelEnabler
}

func (c *gatedCore) Enabled(lvl zapcore.Level) bool {
	return c.gate.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *gatedCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.gate.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *gatedCore) With(fields []zapcore.Field) zapcore.Core {
	return &gatedCore{Core: c.Core.With(fields), gate: c.gate}
}
