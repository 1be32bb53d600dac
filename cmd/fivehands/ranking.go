package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lox/fivehands/internal/ranking"
	"github.com/lox/fivehands/internal/session"
)

// localRankingNote explains why a local ranking printed by a fresh process is empty
const localRankingNote = "Die lokale Rangliste besteht nur während eines play- oder serve-Prozesses. Mit --remote wird die Rangliste des Servers gezeigt."

// RankingCmd prints the ranking for the current mode
type RankingCmd struct {
	Limit int `short:"n" help:"Number of entries to print (overrides config)"`
}

func (c *RankingCmd) Run(g *Globals) error {
	return c.run(g, os.Stdout)
}

func (c *RankingCmd) run(g *Globals, w io.Writer) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	limit := cfg.Game.RankingLimit
	if c.Limit > 0 {
		limit = c.Limit
	}

	logger := newLogger(os.Stderr, cfg.Log.Level)
	svc, err := g.newService(cfg, logger)
	if err != nil {
		return err
	}
	if !svc.Mode().IsRemote() {
		// this process has played no rounds, so there is nothing to rank or pace
		writeRanking(w, svc.Mode().Name(), nil)
		_, err = fmt.Fprintln(w, localRankingNote)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	entries, err := svc.Rankings(ctx)
	if err != nil {
		return err
	}
	writeRanking(w, svc.Mode().Name(), ranking.Top(entries, limit))
	return nil
}

func writeRanking(w io.Writer, modeName string, entries []ranking.Entry) {
	_, _ = fmt.Fprintf(w, "Rangliste (%s)\n", modeName)
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, session.RankingPlaceholder)
		return
	}
	for _, entry := range entries {
		_, _ = fmt.Fprintln(w, entry.String())
	}
}
