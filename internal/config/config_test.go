package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "khatapad.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Palm != def.Palm || cfg.Tools != def.Tools {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[palm]
size_threshold = 55
temporal_delay = false

[tools]
color = "#c0392b"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Palm.SizeThreshold != 55 {
		t.Errorf("size_threshold = %v", cfg.Palm.SizeThreshold)
	}
	if cfg.Palm.TemporalDelay {
		t.Error("temporal_delay should be disabled")
	}
	// Untouched fields keep their defaults.
	if cfg.Palm.EdgeRejectionZone != 0.15 {
		t.Errorf("edge_rejection_zone lost its default: %v", cfg.Palm.EdgeRejectionZone)
	}
	if cfg.Tools.Color != "#c0392b" || cfg.Tools.BaseWidth != 3 {
		t.Errorf("tools = %+v", cfg.Tools)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, `[palm`+"\n")
	if _, err := Load(path); err == nil {
		t.Error("malformed TOML should error")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative threshold", "[palm]\nsize_threshold = -5\n"},
		{"edge zone over 1", "[palm]\nedge_rejection_zone = 1.5\n"},
		{"zero width", "[tools]\nbase_width = 0\n"},
		{"opacity over 1", "[tools]\nopacity = 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestTemporalDelayDuration(t *testing.T) {
	p := Palm{TemporalDelayMs: 75}
	if d := p.TemporalDelayDuration(); d != 75*time.Millisecond {
		t.Errorf("delay = %v", d)
	}
}

func TestExplicitDatabasePathWins(t *testing.T) {
	cfg := Default()
	cfg.Storage.DatabasePath = "/tmp/elsewhere.db"
	p, err := cfg.DatabasePath()
	if err != nil {
		t.Fatal(err)
	}
	if p != "/tmp/elsewhere.db" {
		t.Errorf("path = %s", p)
	}
}
