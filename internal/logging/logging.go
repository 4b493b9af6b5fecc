// Package logging builds the zap logger described by the log config.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lzoffoli-tg/checkupy/internal/config"
)

// New returns a logger for cfg and a cleanup func that flushes it and
// closes the log file. With an empty cfg.File the logger writes to stderr.
func New(cfg config.LogConfig) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	encoder, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, nil, err
	}

	var (
		sink      zapcore.WriteSyncer
		closeFile func() error
	)
	if cfg.File == "" {
		sink = zapcore.Lock(os.Stderr)
	} else {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		sink = zapcore.AddSync(rotator)
		closeFile = rotator.Close
	}

	logger := zap.New(zapcore.NewCore(encoder, sink, level), zap.AddCaller())
	cleanup := func() {
		_ = logger.Sync()
		if closeFile != nil {
			_ = closeFile()
		}
	}
	return logger, cleanup, nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	switch format {
	case "", "console":
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(ec), nil
	case "json":
		return zapcore.NewJSONEncoder(ec), nil
	default:
		return nil, fmt.Errorf("log format %q: want console or json", format)
	}
}
