// cmd/api/logging.go
// This file builds the application's structured logger from the log flags.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aoideee/bookshelf-api/internal/validator"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logFileName is the file written inside logConfig.dir.
const logFileName = "app.log"

// logConfig holds the logging flags.
type logConfig struct {
	level        string // debug, info, warn or error
	format       string // text or json; empty picks one from the environment
	dir          string // directory for app.log; empty means stdout only
	clearOnStart bool   // remove old *.log* files from dir before opening app.log
	maxSizeMB    int    // rotate app.log once it reaches this size
	maxBackups   int    // rotated files to keep; 0 keeps them all
	compress     bool   // gzip rotated files
}

// newLogFile returns the rotating writer for dir/app.log. The file is opened
// in append mode on first write.
func newLogFile(cfg logConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.dir, logFileName),
		MaxSize:    cfg.maxSizeMB,
		MaxBackups: cfg.maxBackups,
		Compress:   cfg.compress,
	}
}

// newLogger returns a logger writing to stdout, and also to a size-rotated
// dir/app.log when a log directory is configured. The returned close function
// is safe to call more than once.
func newLogger(cfg logConfig, environment string, stdout io.Writer) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.level, err)
	}

	format := strings.ToLower(cfg.format)
	if format == "" {
		format = "json"
		if environment == "development" {
			format = "text"
		}
	}
	v := validator.New()
	v.Check(validator.In(format, "text", "json"), "log-format", "must be text or json")
	v.Check(cfg.maxSizeMB >= 0, "log-max-size", "must not be negative")
	v.Check(cfg.maxBackups >= 0, "log-max-backups", "must not be negative")
	if !v.Valid() {
		for _, key := range []string{"log-format", "log-max-size", "log-max-backups"} {
			if msg, ok := v.Errors[key]; ok {
				return nil, nil, fmt.Errorf("invalid -%s: %s", key, msg)
			}
		}
	}

	out := stdout
	closeFn := func() {}
	var removed []string
	if cfg.dir != "" {
		if err := os.MkdirAll(cfg.dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		if cfg.clearOnStart {
			var err error
			removed, err = clearOldLogs(cfg.dir)
			if err != nil {
				return nil, nil, err
			}
		}
		f := newLogFile(cfg)
		out = io.MultiWriter(stdout, f)
		closeFn = sync.OnceFunc(func() { f.Close() })
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	logger := slog.New(handler)

	for _, name := range removed {
		logger.Info("removed old log file", "file", name)
	}
	return logger, closeFn, nil
}

// clearOldLogs deletes every *.log* file directly inside dir and returns the
// names it removed. Files that cannot be removed are reported together.
func clearOldLogs(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.log*"))
	if err != nil {
		return nil, fmt.Errorf("list log files: %w", err)
	}

	var (
		removed []string
		errs    []error
	)
	for _, name := range matches {
		if err := os.Remove(name); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, name)
	}
	return removed, errors.Join(errs...)
}
