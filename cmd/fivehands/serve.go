package main

import (
	"os"

	"github.com/lox/fivehands/internal/evaluation"
	"github.com/lox/fivehands/internal/randutil"
	"github.com/lox/fivehands/internal/server"
	"github.com/lox/fivehands/internal/session"
	"github.com/lox/fivehands/internal/statistics"
)

// ServeCmd runs the remote opponent service and the WebSocket session gateway
type ServeCmd struct {
	Address string `short:"a" help:"Address to bind to (overrides config)"`
	Port    int    `short:"p" help:"Port to listen on (overrides config)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Log.Level)
	ctx, cancel := setupSignalHandler(logger)
	defer cancel()

	// the served opponent keeps its own ranking and never paces
	seed := randutil.Seed(cfg.Game.Seed)
	opponent := server.NewOpponent(evaluation.NewService(evaluation.Options{
		Stats:  statistics.NewStore(),
		Picker: evaluation.NewRandomPicker(seed),
		Logger: logger,
	}), logger)

	gateway, err := g.newService(cfg, logger)
	if err != nil {
		return err
	}
	newSession := server.NewSessionFactory(gateway, session.Options{
		Cooldown:     cfg.Cooldown(),
		RankingLimit: cfg.Game.RankingLimit,
		Logger:       logger,
	})

	logger.Info("Starting fivehands server",
		"addr", cfg.ServerAddress(),
		"seed", seed,
		"gatewayMode", gateway.Mode().Name())

	return server.NewServer(cfg.ServerAddress(), opponent, newSession, logger).Start(ctx)
}
