// Package logx builds the zap loggers used by the programs. Library
// packages never call this. They take a *zap.Logger and fall back to
// zap.NewNop().
package logx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/andrew-torda/sugarclust/pkg/config"
)

// ParseLevel turns "debug", "info", "warn" or "error" into a level.
// The empty string means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

// New returns a logger writing console lines to stderr. If path is not
// empty, JSON lines are also appended to that file. The returned
// function flushes the logger and closes the file.
func New(level, path string) (*zap.Logger, func(), error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), lvl),
	}
	var fp *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		if fp, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(fp), lvl))
	}
	logger := zap.New(zapcore.NewTee(cores...))
	closer := func() {
		_ = logger.Sync()
		if fp != nil {
			fp.Close()
		}
	}
	return logger, closer, nil
}

// NewRunID gives a fresh identifier for one program run.
func NewRunID() string { return uuid.NewString() }

// WithRun attaches the run to every line the logger writes.
func WithRun(logger *zap.Logger, run string) *zap.Logger {
	return logger.With(zap.String("run", run))
}

// OrNop saves callers from checking for a nil logger.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// ForLayout opens the log of a run, in the run directory, and tags every
// line with the run and the sugar.
func ForLayout(level string, l *config.Layout) (*zap.Logger, func(), error) {
	logger, closer, err := New(level, l.LogFile())
	if err != nil {
		return nil, nil, err
	}
	return WithRun(logger, l.Run).With(zap.String("sugar", l.Sugar)), closer, nil
}
