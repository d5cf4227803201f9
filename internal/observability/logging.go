// Package observability provides the engine logger and its OpenTelemetry metrics.
package observability

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/rogue/internal/config"
)

// LoggerOption adjusts the logger NewLogger builds.
type LoggerOption func(*loggerSettings)

type loggerSettings struct {
	fields []zap.Field
	core   func(zapcore.Core) zapcore.Core
}

// WithRun stamps every entry with the run identifier the journal records.
func WithRun(id uuid.UUID) LoggerOption {
	return func(s *loggerSettings) {
		s.fields = append(s.fields, zap.Stringer("run_id", id))
	}
}

// WithService stamps every entry with the binary name and version.
func WithService(name, version string) LoggerOption {
	return func(s *loggerSettings) {
		s.fields = append(s.fields, zap.String("service", name), zap.String("version", version))
	}
}

// WithCore wraps the built core, e.g. to tee into an observer in tests.
func WithCore(wrap func(zapcore.Core) zapcore.Core) LoggerOption {
	return func(s *loggerSettings) { s.core = wrap }
}

// NewLogger builds the engine logger.
//
// Sampling is off in both formats: every resolved action is logged.
// Console output carries no stack traces.
//
// Precondition: cfg.Level is one of "debug", "info", "warn", "error" and
// cfg.Format is "json" or "console".
// Postcondition: Returns a logger writing to cfg.File (or stderr) or a non-nil error.
func NewLogger(cfg config.LoggingConfig, opts ...LoggerOption) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	zapCfg, err := baseConfig(cfg.Format)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Sampling = nil
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	var s loggerSettings
	for _, opt := range opts {
		opt(&s)
	}
	// Wrap before adding fields so a wrapping core sees them too.
	var zapOpts []zap.Option
	if s.core != nil {
		zapOpts = append(zapOpts, zap.WrapCore(s.core))
	}
	if len(s.fields) > 0 {
		zapOpts = append(zapOpts, zap.Fields(s.fields...))
	}

	logger, err := zapCfg.Build(zapOpts...)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

func baseConfig(format string) (zap.Config, error) {
	switch format {
	case "json":
		return zap.NewProductionConfig(), nil
	case "console":
		c := zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		c.DisableStacktrace = true
		return c, nil
	default:
		return zap.Config{}, fmt.Errorf("unknown log format %q", format)
	}
}
