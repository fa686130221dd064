// Package logging builds the zap logger shared by every command.
package logging

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger. verbose enables debug records and pretty
// switches to the console encoder.
func New(verbose, pretty bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if pretty {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "logging: build logger")
	}
	return log, nil
}

// WithRun tags log with a fresh run id and returns both.
func WithRun(log *zap.Logger) (*zap.Logger, string) {
	id := uuid.NewString()
	return OrNop(log).With(zap.String("run_id", id)), id
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// Timing logs the start of operation and returns a func that logs its
// duration. Both records are at debug level.
func Timing(log *zap.Logger, operation string) func() {
	log = OrNop(log)
	if !log.Core().Enabled(zapcore.DebugLevel) {
		return func() {}
	}

	start := time.Now()
	log.Debug("starting", zap.String("op", operation))
	return func() {
		log.Debug("completed", zap.String("op", operation), zap.Duration("took", time.Since(start)))
	}
}
