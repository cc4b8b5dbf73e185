// Package logging provides structured logging setup for havenrise.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where logs go and how they look.
type Config struct {
	Level     string // debug, info, warn, error
	JSON      bool
	NoColor   bool
	AddSource bool
	File      string // optional rotating log file, always JSON
	Rotation  RotationConfig
	Fluent    FluentConfig

	// Writer is the console sink. Defaults to os.Stdout.
	Writer io.Writer
}

// RotationConfig mirrors lumberjack's rotation settings.
type RotationConfig struct {
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// FluentConfig configures forwarding to Fluent Bit or fluentd.
type FluentConfig struct {
	Enabled   bool
	Host      string
	Port      int
	TagPrefix string
}

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the logger described by cfg and installs it as the slog
// default. The returned func flushes and closes the file and fluent sinks.
func Setup(cfg Config) (func() error, error) {
	level := ParseLevel(cfg.Level)
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	handlers := []slog.Handler{consoleHandler(w, level, cfg)}
	var closers []io.Closer

	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
			Compress:   cfg.Rotation.Compress,
		}
		handlers = append(handlers, slog.NewJSONHandler(fileWriter, &slog.HandlerOptions{
			Level:     level,
			AddSource: cfg.AddSource,
		}))
		closers = append(closers, fileWriter)
	}

	if cfg.Fluent.Enabled {
		client, err := newFluentClient(cfg.Fluent)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		handlers = append(handlers, NewFluentHandler(client, level))
		closers = append(closers, client)
	}

	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = newFanout(handlers...)
	}
	slog.SetDefault(slog.New(handler))

	return func() error { return closeAll(closers) }, nil
}

func consoleHandler(w io.Writer, level slog.Level, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	switch {
	case cfg.JSON:
		return slog.NewJSONHandler(w, opts)
	case cfg.NoColor:
		return slog.NewTextHandler(w, opts)
	default:
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  cfg.AddSource,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}
}

func newFluentClient(cfg FluentConfig) (*fluent.Fluent, error) {
	if cfg.TagPrefix == "" {
		return nil, fmt.Errorf("fluent tag prefix is required")
	}
	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.Host,
		FluentPort: cfg.Port,
		TagPrefix:  cfg.TagPrefix,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fluent logger: %w", err)
	}
	return client, nil
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
