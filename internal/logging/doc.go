// Package logging provides structured logging for VitaNote.
//
// The package wraps Zap with:
//   - a Trace level (-2, below Debug)
//   - stdout and optional OpenTelemetry output
//   - context field injection (trace_id, user.id, request.id)
//   - key and pattern based secret redaction
//   - level-aware sampling (errors are never sampled)
//   - runtime level changes through SetLevel
//
// Usage:
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithUserID(ctx, user.ID)
//	logger.Info(ctx, "glucose recorded", zap.Float64("mmol_l", 6.2))
//
// Tests use TestLogger:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "login failed", logging.RedactedString("password", pw))
//	tl.AssertLogged(t, zapcore.InfoLevel, "login failed")
//	tl.AssertNoSecrets(t)
package logging
