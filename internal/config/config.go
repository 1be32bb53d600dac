// Package config loads fivehands settings from an HCL file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/fivehands/internal/evaluation"
	"github.com/lox/fivehands/internal/session"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "fivehands.hcl"

// Config represents the complete configuration
type Config struct {
	Game       GameSettings
	Remote     RemoteSettings
	Preference PreferenceSettings
	Server     ServerSettings
	Log        LogSettings
}

// file mirrors Config with every block optional
type file struct {
	Game       *GameSettings       `hcl:"game,block"`
	Remote     *RemoteSettings     `hcl:"remote,block"`
	Preference *PreferenceSettings `hcl:"preference,block"`
	Server     *ServerSettings     `hcl:"server,block"`
	Log        *LogSettings        `hcl:"log,block"`
}

// GameSettings controls session pacing and the local opponent
type GameSettings struct {
	PacingDelayMS int   `hcl:"pacing_delay_ms,optional"`
	CooldownMS    int   `hcl:"cooldown_ms,optional"`
	RankingLimit  int   `hcl:"ranking_limit,optional"`
	Seed          int64 `hcl:"seed,optional"`
}

// RemoteSettings points at the remote opponent service
type RemoteSettings struct {
	URL            string `hcl:"url,optional"`
	RequestTimeout int    `hcl:"request_timeout,optional"` // seconds
}

// PreferenceSettings locates the persisted mode preference
type PreferenceSettings struct {
	Path string `hcl:"path,optional"`
}

// ServerSettings is where `fivehands serve` listens
type ServerSettings struct {
	Address string `hcl:"address,optional"`
	Port    int    `hcl:"port,optional"`
}

// LogSettings sets the log level and the file used while the TUI runs
type LogSettings struct {
	Level string `hcl:"level,optional"`
	File  string `hcl:"file,optional"`
}

// Default returns the default configuration
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from an HCL file. A missing file yields defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	parsed, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw file
	diags = gohcl.DecodeBody(parsed.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	var cfg Config
	if raw.Game != nil {
		cfg.Game = *raw.Game
	}
	if raw.Remote != nil {
		cfg.Remote = *raw.Remote
	}
	if raw.Preference != nil {
		cfg.Preference = *raw.Preference
	}
	if raw.Server != nil {
		cfg.Server = *raw.Server
	}
	if raw.Log != nil {
		cfg.Log = *raw.Log
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Game.PacingDelayMS == 0 {
		c.Game.PacingDelayMS = int(evaluation.DefaultDelay / time.Millisecond)
	}
	if c.Game.CooldownMS == 0 {
		c.Game.CooldownMS = int(session.DefaultCooldown / time.Millisecond)
	}
	if c.Game.RankingLimit == 0 {
		c.Game.RankingLimit = session.DefaultRankingLimit
	}
	if c.Remote.URL == "" {
		c.Remote.URL = "http://localhost:8080"
	}
	if c.Remote.RequestTimeout == 0 {
		c.Remote.RequestTimeout = 10
	}
	if c.Preference.Path == "" {
		c.Preference.Path = "fivehands-mode.json"
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "fivehands.log"
	}
}

// Validate checks the configuration for out-of-range values
func (c *Config) Validate() error {
	if c.Game.PacingDelayMS < 0 {
		return fmt.Errorf("game: pacing_delay_ms must not be negative: %d", c.Game.PacingDelayMS)
	}
	if c.Game.CooldownMS < 0 {
		return fmt.Errorf("game: cooldown_ms must not be negative: %d", c.Game.CooldownMS)
	}
	if c.Game.RankingLimit < 0 {
		return fmt.Errorf("game: ranking_limit must not be negative: %d", c.Game.RankingLimit)
	}

	u, err := url.Parse(c.Remote.URL)
	if err != nil {
		return fmt.Errorf("remote: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("remote: url must be http or https: %s", c.Remote.URL)
	}
	if c.Remote.RequestTimeout < 0 {
		return fmt.Errorf("remote: request_timeout must not be negative: %d", c.Remote.RequestTimeout)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if _, err := log.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log: invalid level %q", c.Log.Level)
	}

	return nil
}

// PacingDelay is the delay applied to local results
func (c *Config) PacingDelay() time.Duration {
	return time.Duration(c.Game.PacingDelayMS) * time.Millisecond
}

// Cooldown is how long a resolved round stays on screen
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Game.CooldownMS) * time.Millisecond
}

// RequestTimeout bounds each remote request
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Remote.RequestTimeout) * time.Second
}

// ServerAddress returns the full listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
