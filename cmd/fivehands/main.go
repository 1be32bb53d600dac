package main

import (
	"github.com/alecthomas/kong"

	"github.com/lox/fivehands/internal/config"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"${config_file}" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" help:"Log level: debug, info, warn, error (overrides config)"`
	Remote   bool   `help:"Play against the remote opponent for this run without saving the preference"`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Play    PlayCmd          `cmd:"" default:"withargs" help:"Play in the terminal"`
	Serve   ServeCmd         `cmd:"" help:"Run the remote opponent service and session gateway"`
	Ranking RankingCmd       `cmd:"" help:"Print the ranking for the current mode"`
	Mode    ModeCmd          `cmd:"" help:"Show or set the saved opponent mode"`
}

func vars() kong.Vars {
	return kong.Vars{
		"version":     version,
		"config_file": config.DefaultFile,
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("fivehands"),
		kong.Description("Rock-paper-scissors with five hands"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		vars(),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
