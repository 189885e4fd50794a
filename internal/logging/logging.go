// Package logging builds the structured progress logger of the pipeline.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFile is the append-only pipeline log inside the log directory.
const LogFile = "pipeline.log"

// Options controls where log entries go.
type Options struct {
	Dir     string    // directory of the JSON log file, empty disables it
	Console io.Writer // human-readable stream, nil disables it
	Debug   bool
}

// New returns a sugared logger teeing a console encoder and an append-only
// JSON file. The returned close function syncs and closes the file.
func New(opts Options) (*zap.SugaredLogger, func() error, error) {
	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	var cores []zapcore.Core
	closeFn := func() error { return nil }

	if opts.Console != nil {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(opts.Console), level))
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir %s: %w", opts.Dir, err)
		}
		path := filepath.Join(opts.Dir, LogFile)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level))
		closeFn = func() error {
			_ = f.Sync()
			return f.Close()
		}
	}

	if len(cores) == 0 {
		return Nop(), closeFn, nil
	}
	return zap.New(zapcore.NewTee(cores...)).Sugar(), closeFn, nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
