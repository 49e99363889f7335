package observability

import (
	"context"
	"fmt"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/portal-gateway/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field represents a structured log field.
type Field = zap.Field

// NewLogger builds a zap logger from the observability settings.
// LogFormat "console" selects the human readable development encoder,
// anything else produces JSON lines.
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zapCfg zap.Config
	if strings.EqualFold(cfg.LogFormat, "console") {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ForRequest returns logger annotated with the chi request id carried by ctx
func ForRequest(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		return logger.With(zap.String("request_id", reqID))
	}
	return logger
}
