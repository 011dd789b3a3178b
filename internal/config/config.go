// Package config loads khatapad.toml. Every field has a compiled-in
// default; a missing config file is the normal case, not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full application configuration.
type Config struct {
	Storage Storage `toml:"storage"`
	Palm    Palm    `toml:"palm"`
	Tools   Tools   `toml:"tools"`
	Sync    Sync    `toml:"sync"`
}

// Storage locates the stroke database.
type Storage struct {
	DatabasePath string `toml:"database_path"` // empty: default under the user config dir
}

// Palm tunes the rejection tiers.
type Palm struct {
	SizeThreshold     float64 `toml:"size_threshold"`
	TemporalDelayMs   int     `toml:"temporal_delay_ms"`
	VelocityThreshold float64 `toml:"velocity_threshold"`
	EdgeRejectionZone float64 `toml:"edge_rejection_zone"`
	TemporalDelay     bool    `toml:"temporal_delay"`
	VelocityAnalysis  bool    `toml:"velocity_analysis"`
	EdgeFiltering     bool    `toml:"edge_filtering"`
}

// Tools holds the startup tool state.
type Tools struct {
	Tool      string  `toml:"tool"`
	Color     string  `toml:"color"`
	BaseWidth float64 `toml:"base_width"`
	Opacity   float64 `toml:"opacity"`
}

// Sync configures the companion-device link.
type Sync struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"` // ws:// URL; empty with Enabled uses mDNS discovery
	Port     int    `toml:"port"`     // advertised port
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Storage: Storage{},
		Palm: Palm{
			SizeThreshold:     40,
			TemporalDelayMs:   50,
			VelocityThreshold: 2,
			EdgeRejectionZone: 0.15,
			TemporalDelay:     true,
			VelocityAnalysis:  true,
			EdgeFiltering:     true,
		},
		Tools: Tools{
			Tool:      "pen",
			Color:     "#1a1a2e",
			BaseWidth: 3,
			Opacity:   1,
		},
		Sync: Sync{Port: 8787},
	}
}

// Load reads the config file found by ConfigPath(overridePath), layering
// it over the defaults. No file at all returns the defaults unchanged; an
// unreadable or malformed file is an error.
func Load(overridePath string) (*Config, error) {
	path := ConfigPath(overridePath)
	if path == "" {
		return Default(), nil
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigPath locates the config file: the explicit override first, then
// khatapad.toml in the working directory, then the user config dir. Empty
// means no file exists anywhere.
func ConfigPath(overridePath string) string {
	if overridePath != "" {
		if _, err := os.Stat(overridePath); err == nil {
			return overridePath
		}
		return ""
	}

	wd, _ := os.Getwd()
	local := filepath.Join(wd, "khatapad.toml")
	if _, err := os.Stat(local); err == nil {
		return local
	}

	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "khatapad", "khatapad.toml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DatabasePath resolves the stroke database location, creating the parent
// directory when the default under the user config dir is used.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.DatabasePath != "" {
		return c.Storage.DatabasePath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	dir = filepath.Join(dir, "khatapad")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(dir, "strokes.db"), nil
}

// TemporalDelayDuration converts the configured delay to a duration.
func (p Palm) TemporalDelayDuration() time.Duration {
	return time.Duration(p.TemporalDelayMs) * time.Millisecond
}

func (c *Config) validate() error {
	if c.Palm.SizeThreshold <= 0 {
		return fmt.Errorf("palm.size_threshold must be positive, got %v", c.Palm.SizeThreshold)
	}
	if c.Palm.EdgeRejectionZone < 0 || c.Palm.EdgeRejectionZone >= 1 {
		return fmt.Errorf("palm.edge_rejection_zone must be in [0,1), got %v", c.Palm.EdgeRejectionZone)
	}
	if c.Tools.BaseWidth <= 0 {
		return fmt.Errorf("tools.base_width must be positive, got %v", c.Tools.BaseWidth)
	}
	if c.Tools.Opacity <= 0 || c.Tools.Opacity > 1 {
		return fmt.Errorf("tools.opacity must be in (0,1], got %v", c.Tools.Opacity)
	}
	return nil
}
