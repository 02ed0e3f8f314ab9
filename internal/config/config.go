package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/tautline/taut/internal/timeunit"
)

type Config struct {
	Display DisplayConfig `toml:"display"`
	Report  ReportConfig  `toml:"report"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type DisplayConfig struct {
	TimeUnit string `toml:"time_unit"`
	Decimals int    `toml:"decimals"`
}

type ReportConfig struct {
	ShowVariance bool `toml:"show_variance"`
	ShowRisk     bool `toml:"show_risk"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	DevLog bool   `toml:"dev_log"`
}

var validLevels = []string{"debug", "info", "warn", "error"}

func Default() Config {
	return Config{
		Display: DisplayConfig{
			TimeUnit: string(timeunit.Default),
			Decimals: 1,
		},
		Report: ReportConfig{
			ShowVariance: true,
			ShowRisk:     true,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level:  "info",
			DevLog: false,
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := timeunit.Parse(c.Display.TimeUnit); err != nil {
		return fmt.Errorf("invalid display.time_unit: %q", c.Display.TimeUnit)
	}
	if c.Display.Decimals < 0 || c.Display.Decimals > 4 {
		return fmt.Errorf("display.decimals must be between 0 and 4, got %d", c.Display.Decimals)
	}

	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if !slices.Contains(validLevels, level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	api := strings.TrimSpace(c.Server.APIEndpoint)
	mcp := strings.TrimSpace(c.Server.MCPEndpoint)
	if api != "" && api == mcp {
		return errors.New("server.api_endpoint and server.mcp_endpoint must differ")
	}

	return nil
}

// Unit returns the configured display unit. Call after Validate; an
// unparseable value falls back to the package default.
func (c Config) Unit() timeunit.Unit {
	u, err := timeunit.Parse(c.Display.TimeUnit)
	if err != nil {
		return timeunit.Default
	}
	return u
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
