// internal/logging/context.go
package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("run.id", runID))
	}
	if task := TaskFromContext(ctx); task != "" {
		fields = append(fields, zap.String("task.name", task))
	}
	if repo := RepositoryFromContext(ctx); repo != "" {
		fields = append(fields, zap.String("repo", repo))
	}

	return fields
}

type runCtxKey struct{}
type taskCtxKey struct{}
type repoCtxKey struct{}

// WithRunID tags every log line of a pipeline run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, runID)
}

// RunIDFromContext extracts the run id from context.
func RunIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(runCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithTask records the task currently being processed.
func WithTask(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, taskCtxKey{}, name)
}

// TaskFromContext extracts the task name from context.
func TaskFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(taskCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithRepository records the repository ("owner/name" or a local path).
func WithRepository(ctx context.Context, repo string) context.Context {
	return context.WithValue(ctx, repoCtxKey{}, repo)
}

// RepositoryFromContext extracts the repository from context.
func RepositoryFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(repoCtxKey{}).(string); ok {
		return s
	}
	return ""
}

type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return Nop()
}
