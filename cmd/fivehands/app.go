package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/fivehands/internal/config"
	"github.com/lox/fivehands/internal/evaluation"
	"github.com/lox/fivehands/internal/mode"
	"github.com/lox/fivehands/internal/randutil"
	"github.com/lox/fivehands/internal/remote"
	"github.com/lox/fivehands/internal/statistics"
)

// loadConfig loads and validates the configuration with flag overrides applied
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger creates a logger writing to w at level
func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// openLogFile returns a plain-text logger appending to path, for when the
// terminal belongs to the TUI
func openLogFile(path, level string) (*log.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := newLogger(f, level)
	logger.SetColorProfile(termenv.Ascii)
	return logger, f, nil
}

// loadMode returns the process mode switch. --remote forces remote mode
// without touching the saved preference.
func (g *Globals) loadMode(cfg *config.Config, logger *log.Logger) *mode.Switch {
	if g.Remote {
		return mode.NewSwitch(true, nil)
	}
	switcher, err := mode.Load(mode.FilePreference{Path: cfg.Preference.Path})
	if err != nil {
		logger.Warn("Failed to load mode preference, using local mode", "path", cfg.Preference.Path, "error", err)
	}
	return switcher
}

// newService wires the evaluation service used by interactive sessions
func (g *Globals) newService(cfg *config.Config, logger *log.Logger) (*evaluation.Service, error) {
	client, err := remote.NewClient(cfg.Remote.URL, cfg.RequestTimeout(), logger)
	if err != nil {
		return nil, err
	}

	seed := randutil.Seed(cfg.Game.Seed)
	logger.Debug("Local opponent seeded", "seed", seed)

	return evaluation.NewService(evaluation.Options{
		Stats:  statistics.NewStore(),
		Mode:   g.loadMode(cfg, logger),
		Remote: client,
		Picker: evaluation.NewRandomPicker(seed),
		Delay:  cfg.PacingDelay(),
		Logger: logger,
	}), nil
}

// setupSignalHandler returns a context cancelled on interrupt signals
func setupSignalHandler(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
