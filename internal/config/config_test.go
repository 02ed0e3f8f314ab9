package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tautline/taut/internal/timeunit"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Display.TimeUnit != "days" {
		t.Fatalf("unexpected time unit %q", cfg.Display.TimeUnit)
	}
	if cfg.Display.Decimals != 1 {
		t.Fatalf("unexpected decimals %d", cfg.Display.Decimals)
	}
	if !cfg.Report.ShowVariance || !cfg.Report.ShowRisk {
		t.Fatal("expected variance/risk sections enabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.DevLog {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default()
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Display.TimeUnit != defaults.Display.TimeUnit {
		t.Fatalf("expected default time unit, got %q", cfg.Display.TimeUnit)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[display]
time_unit = "weeks"
decimals = 2

[report]
show_variance = false
show_risk = true

[logging]
level = "debug"
dev_log = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Unit() != timeunit.Weeks {
		t.Fatalf("unexpected unit %q", cfg.Unit())
	}
	if cfg.Display.Decimals != 2 {
		t.Fatalf("unexpected decimals %d", cfg.Display.Decimals)
	}
	if cfg.Report.ShowVariance {
		t.Fatal("expected variance columns hidden from config override")
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.DevLog {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidUnit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[display]
time_unit = "fortnights"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default()); err == nil {
		t.Fatal("expected error for invalid time unit")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Display.Decimals = 9
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for decimals out of range")
	}

	cfg = Default()
	cfg.Logging.Level = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = Default()
	cfg.Server.MCPEndpoint = cfg.Server.APIEndpoint
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for colliding endpoints")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
