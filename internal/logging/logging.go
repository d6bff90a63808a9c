// Package logging builds the structured logr.Logger used throughout the
// proxy. Grounded on kedacore/keda's controller stack, which backs its
// logr.Logger with zap via go-logr/zapr: one shared logger, verbosity
// controlled by a single flag, fields attached per-component via
// WithName/WithValues.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the root logger.
type Options struct {
	// Verbose enables debug-level (V(1)) diagnostics: router probing,
	// pool churn, refresh attempts.
	Verbose bool
	// JSON selects structured JSON output over the human-readable
	// console encoder; production deployments want JSON for ingestion.
	JSON bool
}

// New builds the application's root logger. Pass it to each component via
// WithName so log lines carry the component that emitted them.
func New(opts Options) (logr.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	if !opts.JSON {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	zl, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}
