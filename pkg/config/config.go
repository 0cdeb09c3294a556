/*
Package config manages TOML config for the wordcore binaries and the JSON
session files the engine is initialized from.

InitConfig handles automatic config file creation and loading with
fallback to defaults. LoadConfig and SaveConfig provide direct fs access
for runtime changes. Session files are a separate, caller-facing JSON
format carrying locales, dictionary paths, prediction weights and the key
proximity map.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config holds the entire app config structure.
type Config struct {
	Server ServerConfig `toml:"server"`
	CLI    CliConfig    `toml:"cli"`
}

// ServerConfig has IPC server related options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	MaxWordLen   int  `toml:"max_word_len"`
	MaxHistory   int  `toml:"max_history"`
	AllowTrain   bool `toml:"allow_train"`
	EnableFilter bool `toml:"enable_filter"`
}

// CliConfig holds the debug REPL options.
type CliConfig struct {
	DefaultLimit      int `toml:"default_limit"`
	DefaultNgramLevel int `toml:"default_ngram_level"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:     64,
			MaxWordLen:   60,
			MaxHistory:   8,
			AllowTrain:   true,
			EnableFilter: true,
		},
		CLI: CliConfig{
			DefaultLimit:      8,
			DefaultNgramLevel: 3,
		},
	}
}

// InitConfig returns the config at configPath, writing the defaults out
// first when no file exists yet. An unreadable or malformed file is not
// fatal; the defaults take over with a warning.
func InitConfig(configPath string) (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(configPath)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, os.ErrNotExist):
		cfg = DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			return nil, err
		}
		log.Debugf("wrote default config to ( %s )", configPath)
		return cfg, nil
	default:
		log.Warnf("unreadable config %s, falling back to defaults: %v", configPath, err)
		return DefaultConfig(), nil
	}
}

// LoadConfig reads a TOML file over the defaults, so keys missing from
// the file keep their stock values, then clamps anything nonsensical.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// SaveConfig writes the config as TOML.
func SaveConfig(cfg *Config, configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

// normalize pulls zero or negative result and word-length limits back to
// their defaults and a negative history bound back to its default (0 is
// kept and disables history); a negative CLI n-gram level becomes 0. A
// hand-edited config must never disable the server's bounds entirely.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Server.MaxLimit <= 0 {
		c.Server.MaxLimit = def.Server.MaxLimit
	}
	if c.Server.MaxWordLen <= 0 {
		c.Server.MaxWordLen = def.Server.MaxWordLen
	}
	if c.Server.MaxHistory < 0 {
		c.Server.MaxHistory = def.Server.MaxHistory
	}
	if c.CLI.DefaultLimit <= 0 {
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
	if c.CLI.DefaultNgramLevel < 0 {
		c.CLI.DefaultNgramLevel = 0
	}
}
