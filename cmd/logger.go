package cmd

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func isDebugEnv() bool {
	if os.Getenv("HTMLINDEX_DEBUG") == "1" {
		return true
	}
	if strings.EqualFold(os.Getenv("ACTIONS_STEP_DEBUG"), "true") {
		return true
	}
	if os.Getenv("RUNNER_DEBUG") == "1" {
		return true
	}
	return false
}

// newLogger logs to stderr at warn level, or debug when asked for.
func newLogger(verbose bool) *zap.Logger {
	return newLoggerTo(zapcore.Lock(os.Stderr), verbose || isDebugEnv(), true)
}

func newLoggerTo(ws zapcore.WriteSyncer, verbose, color bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), ws, level))
}

// watchLogger keeps logs off the terminal while the TUI owns it. With debug
// on, everything goes to logPath; otherwise nothing is logged, since the TUI
// already shows errors and warnings itself.
func watchLogger(verbose bool, logPath string) (*zap.Logger, func(), error) {
	if !verbose && !isDebugEnv() {
		return zap.NewNop(), func() {}, nil
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := newLoggerTo(zapcore.Lock(f), true, false)
	return logger, func() {
		_ = logger.Sync()
		_ = f.Close()
	}, nil
}
