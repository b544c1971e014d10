// Package predictor asks a completion service for a progress verdict on a
// task given the combined summary of its matched commits.
//
// The verdict is stored verbatim. ParseVerdict extracts the structured
// fields (status, confidence, hour range, completion split) for logging
// and metrics; unparseable replies still count as verdicts.
package predictor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
)

// Predictor produces one verdict per task.
type Predictor struct {
	completion  progress.CompletionService
	temperature float64
	maxTokens   int
	logger      *logging.Logger
}

// New creates a Predictor.
func New(completion progress.CompletionService, cfg config.PredictorConfig, logger *logging.Logger) *Predictor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Predictor{
		completion:  completion,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// Predict returns the raw verdict text for task.
func (p *Predictor) Predict(ctx context.Context, task progress.Task, summary string) (string, error) {
	endDate := ""
	if !task.EndDate.IsZero() {
		endDate = task.EndDate.Format(progress.DateLayout)
	}

	raw, err := p.completion.Complete(ctx, progress.CompletionRequest{
		System:      systemPrompt,
		Prompt:      buildPrompt(task.Name, endDate, summary),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to predict task progress: %w", err)
	}
	raw = strings.TrimSpace(raw)

	v := ParseVerdict(raw)
	p.logger.Info(ctx, "predicted task progress",
		zap.String("status", string(v.Status)),
		zap.Int("confidence", v.Confidence),
		zap.Int("percent_complete", v.PercentComplete),
		zap.Float64("hours_min", v.HoursMin),
		zap.Float64("hours_max", v.HoursMax))
	return raw, nil
}

// ErrorText is the inline verdict stored when Predict fails.
func ErrorText(err error) string {
	return "Evaluation error: " + err.Error()
}
