package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/fivehands/internal/session"
	"github.com/lox/fivehands/internal/tui"
)

// PlayCmd runs the terminal game
type PlayCmd struct {
	LogFile string `help:"Log file while the TUI owns the terminal (overrides config)"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if c.LogFile != "" {
		cfg.Log.File = c.LogFile
	}

	logger, logFile, err := openLogFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	ctx, cancel := setupSignalHandler(logger)
	defer cancel()

	svc, err := g.newService(cfg, logger)
	if err != nil {
		return err
	}

	sess, err := session.New(session.Options{
		Evaluator:    svc,
		Mode:         svc.Mode(),
		Cooldown:     cfg.Cooldown(),
		RankingLimit: cfg.Game.RankingLimit,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	logger.Info("Starting fivehands", "mode", svc.Mode().Name(), "remote", cfg.Remote.URL, "config", g.Config)

	model := tui.NewModel(sess, logger)
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
