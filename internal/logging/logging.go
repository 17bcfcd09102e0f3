// Package logging configures the structured logger every component in this
// module pulls off github.com/ethereum/go-ethereum/log, with optional
// rotating-file output and terminal color detection.
//
// Grounded on the teacher's plugin/evm/log.go (InitLogger/SetLogLevel),
// adapted off ethereum/go-ethereum/log directly rather than the teacher's
// own forked log package, and on plugin/evm/log.go's useColor handling via
// mattn/go-isatty for terminal detection.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where logs go and at what level.
type Config struct {
	// Level is one of: trace, debug, info, warn, error, crit.
	Level string
	// JSON forces structured JSON output instead of the terminal format.
	JSON bool
	// FilePath, if non-empty, sends output through a rotating lumberjack
	// writer instead of stderr.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger wraps log.Logger with a mutable level, mirroring the teacher's
// EVMLogger (InitLogger/SetLogLevel).
type Logger struct {
	log.Logger
	level *slog.LevelVar
}

// New builds a Logger per cfg and installs it as the package-level default
// (log.SetDefault), so any component calling log.New/log.Root picks it up.
func New(component string, cfg Config) (*Logger, error) {
	levelVar := &slog.LevelVar{}

	writer := io.Writer(colorable.NewColorableStderr())
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	if cfg.FilePath != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		}
		useColor = false
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = log.JSONHandlerWithLevel(writer, levelVar)
	} else {
		handler = log.NewTerminalHandlerWithLevel(writer, levelVar, useColor)
	}
	handler = &componentHandler{Handler: handler, component: component}

	l := &Logger{Logger: log.NewLogger(handler), level: levelVar}
	if err := l.SetLevel(cfg.Level); err != nil {
		return nil, err
	}
	log.SetDefault(l.Logger)
	return l, nil
}

// SetLevel changes the minimum logged level at runtime.
func (l *Logger) SetLevel(level string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := log.LvlFromString(level)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	l.level.Set(slog.Level(lvl))
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// componentHandler tags every record with the owning component name, the
// way the teacher's addContext handler tags records with the chain alias.
type componentHandler struct {
	slog.Handler
	component string
}

func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Add(slog.String("component", h.component))
	return h.Handler.Handle(ctx, r)
}

func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &componentHandler{Handler: h.Handler.WithAttrs(attrs), component: h.component}
}

func (h *componentHandler) WithGroup(name string) slog.Handler {
	return &componentHandler{Handler: h.Handler.WithGroup(name), component: h.component}
}
