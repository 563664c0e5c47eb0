package app

import (
	"io"
	"log/slog"
	"time"
)

// App encapsulates the application's dependencies, configuration and
// lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// New constructs the application with its own isolated logger.
func New(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("logger configured")
	if cfg.JobDate == "" {
		cfg.JobDate = time.Now().Format("2006-01-02")
	}
	return &App{outW: outW, logger: logger, config: cfg}
}

// Logger returns the application logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger { return a.logger }
