package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/MSCMDD/ServerMarket/internal/config"
)

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process JSON logger writing to stdout and, when
// cfg.File is set, to a size-rotated file as well. The returned close
// function flushes and closes the file.
func NewLogger(cfg config.LogConfig, stdout io.Writer) (*slog.Logger, func() error) {
	writer := stdout
	closeFn := func() error { return nil }

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err == nil {
			file := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			}
			writer = io.MultiWriter(stdout, file)
			closeFn = file.Close
		}
	}

	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}))
	return logger, closeFn
}
