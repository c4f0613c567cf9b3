// Package logging builds the zap loggers used by the command line tools.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field names shared by everything that logs.
const (
	FieldRunID   = "run_id"
	FieldSpecies = "species"
	FieldNSeq    = "n_seq"
	FieldPath    = "path"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string // debug, info, warn, error. Empty means info
	Format string // console or json. Empty means console
}

// New builds a logger writing to w. An unknown level is an error.
func New(w io.Writer, opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if s := strings.TrimSpace(opts.Level); s != "" {
		var err error
		if level, err = zap.ParseAtomicLevel(strings.ToLower(s)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		enc = zapcore.NewConsoleEncoder(ec)
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core), nil
}

// OrNop returns l, or a logger which throws everything away if l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
