// Package dflog provides the engine's structured logger: a thin
// constructor around *zap.Logger, following the pack's convention of
// passing a *zap.Logger through a constructor and falling back to a
// no-op logger when the caller doesn't supply one (see
// ObjectStore.log in the queryoptimizer/objectstore pack examples).
//
// The planner and interpreter do not hold a logger and never log on the
// hot path (plan execution is meant to stay allocation-free); dflog is
// only reached for at the CLI and load boundaries, where one call per
// command/row-batch is immaterial.
package dflog

import "go.uber.org/zap"

// New returns a production JSON logger writing to stderr, or a
// development console logger when verbose is set.
func New(verbose bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewNop returns a logger that discards everything, for callers (tests,
// library use without an owning CLI) that don't want output.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns log unchanged, or a no-op logger if log is nil --
// the guard every constructor taking an optional *zap.Logger applies.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
