// internal/logging/redact.go
package logging

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	redactedKey   = "[REDACTED]"
	redactedValue = "[REDACTED:pattern]"
	maxPatternLen = 200
)

// redactor holds the compiled redaction rules shared by the console encoder
// and the OTLP bridge core.
type redactor struct {
	keys     map[string]bool
	patterns []*regexp.Regexp
}

func newRedactor(cfg RedactionConfig) (redactor, error) {
	if !cfg.Enabled {
		return redactor{}, nil
	}
	r := redactor{keys: make(map[string]bool, len(cfg.Fields))}
	for _, f := range cfg.Fields {
		r.keys[strings.ToLower(f)] = true
	}
	for _, p := range cfg.Patterns {
		if len(p) > maxPatternLen {
			return redactor{}, fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, p)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return redactor{}, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

func (r redactor) empty() bool { return len(r.keys) == 0 && len(r.patterns) == 0 }

func (r redactor) key(k string) bool { return r.keys[strings.ToLower(k)] }

func (r redactor) value(v string) bool {
	for _, re := range r.patterns {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// field returns f with its value replaced when the key or the rendered
// string or error text matches a rule.
func (r redactor) field(f zapcore.Field) zapcore.Field {
	if r.key(f.Key) {
		return zap.String(f.Key, redactedKey)
	}
	switch f.Type {
	case zapcore.StringType:
		if r.value(f.String) {
			return zap.String(f.Key, redactedValue)
		}
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok && r.value(err.Error()) {
			return zap.String(f.Key, redactedValue)
		}
	}
	return f
}

// RedactingEncoder wraps a zapcore.Encoder. Entry fields pass through
// EncodeEntry; fields bound with Logger.With arrive through the Add methods.
type RedactingEncoder struct {
	zapcore.Encoder
	rules redactor
}

// NewRedactingEncoder wraps base with the configured rules. A disabled
// config yields a pass-through encoder and its patterns are not compiled.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	rules, err := newRedactor(cfg)
	if err != nil {
		return nil, err
	}
	return &RedactingEncoder{Encoder: base, rules: rules}, nil
}

func (e *RedactingEncoder) AddString(key, val string) {
	switch {
	case e.rules.key(key):
		e.Encoder.AddString(key, redactedKey)
	case e.rules.value(val):
		e.Encoder.AddString(key, redactedValue)
	default:
		e.Encoder.AddString(key, val)
	}
}

func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	if e.rules.key(key) || e.rules.value(string(val)) {
		e.AddString(key, string(val))
		return
	}
	e.Encoder.AddByteString(key, val)
}

func (e *RedactingEncoder) AddBinary(key string, val []byte) {
	if e.rules.key(key) {
		e.Encoder.AddString(key, redactedKey)
		return
	}
	e.Encoder.AddBinary(key, val)
}

func (e *RedactingEncoder) AddReflected(key string, val interface{}) error {
	if e.rules.key(key) {
		e.Encoder.AddString(key, redactedKey)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

func (e *RedactingEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	if e.rules.key(key) {
		e.Encoder.AddString(key, redactedKey)
		return nil
	}
	return e.Encoder.AddArray(key, arr)
}

func (e *RedactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.rules.key(key) {
		e.Encoder.AddString(key, redactedKey)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

// EncodeEntry redacts per-entry fields. The wrapped encoder encodes them
// into its own clone, out of reach of the Add overrides.
func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if e.rules.empty() {
		return e.Encoder.EncodeEntry(ent, fields)
	}
	clean := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		clean[i] = e.rules.field(f)
	}
	return e.Encoder.EncodeEntry(ent, clean)
}

func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{Encoder: e.Encoder.Clone(), rules: e.rules}
}
