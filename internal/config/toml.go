// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Profile ProfileConfig `toml:"profile"`
	Heatmap HeatmapConfig `toml:"heatmap"`
	API     APIConfig     `toml:"api"`
	Log     LogConfig     `toml:"log"`
}

// ProfileConfig maps the account settings.
type ProfileConfig struct {
	Handle *string `toml:"handle"`
}

// HeatmapConfig maps grid settings.
type HeatmapConfig struct {
	Year         *int    `toml:"year"`
	WeekStart    *string `toml:"week-start"`
	Timezone     *string `toml:"timezone"`
	FallbackYear *int    `toml:"fallback-year"`
}

// APIConfig maps the submission API settings.
type APIConfig struct {
	BaseURL *string   `toml:"base-url"`
	Timeout *Duration `toml:"timeout"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level    *string `toml:"level"`
	Encoding *string `toml:"encoding"`
	File     *string `toml:"file"`
}

// Duration decodes TOML strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}
