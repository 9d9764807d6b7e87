// Package logging builds the process logger. Logging is off unless debug
// mode is enabled, in which case JSON lines go to a file so the TUI keeps
// the terminal.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugLogPath is the fixed path for debug logs.
const DebugLogPath = "labgrid-debug.log"

// New returns a no-op logger unless debug is set, in which case it returns
// a debug-level JSON logger writing to path (DebugLogPath when empty).
func New(debug bool, path string) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	if path == "" {
		path = DebugLogPath
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncoderConfig.MessageKey = "event"

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("creating debug log: %w", err)
	}
	logger.Debug("debug start", zap.String("log_file", path))
	return logger, nil
}

// Sync flushes the logger, ignoring the harmless errors some terminals
// return for stdout/stderr sync.
func Sync(l *zap.Logger) {
	if l != nil {
		_ = l.Sync()
	}
}
