package main

import (
	"fmt"
	"os"

	"github.com/lox/fivehands/internal/mode"
)

// ModeCmd shows or sets the saved opponent mode
type ModeCmd struct {
	Mode string `arg:"" optional:"" help:"Mode to save: local or remote"`
}

func (c *ModeCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	pref := mode.FilePreference{Path: cfg.Preference.Path}
	switcher, err := mode.Load(pref)
	if err != nil {
		newLogger(os.Stderr, cfg.Log.Level).Warn("Ignoring unreadable mode preference", "path", pref.Path, "error", err)
	}

	if c.Mode == "" {
		fmt.Println(switcher.Name())
		return nil
	}

	remote, err := mode.Parse(c.Mode)
	if err != nil {
		return err
	}
	if err := switcher.Set(remote); err != nil {
		return err
	}
	fmt.Printf("Mode saved: %s\n", switcher.Name())
	return nil
}
