// Package logging provides structured logging for taskpulse runs.
//
// Logging wraps Zap with:
//   - a Trace level (-2, below Debug) for prompts and raw completions
//   - context field injection (trace_id, run.id, task.name, repo)
//   - encoder-level secret redaction
//   - optional sampling below Error
//   - an optional tee into an OpenTelemetry LoggerProvider (otelzap)
//
// # Usage
//
//	cfg, err := logging.FromSettings(appCfg.Logging)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg, tel.LoggerProvider())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	ctx = logging.WithRunID(ctx, runID)
//	ctx = logging.WithTask(ctx, task.Name)
//	logger.Info(ctx, "commits matched", zap.Int("count", n))
//
// Tokens are redacted by field name (token, api_key, authorization, ...)
// and by value pattern (GitHub and OpenAI key shapes, bearer headers).
// config.Secret prints a placeholder wherever it is formatted.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertNoSecrets(t)
package logging
