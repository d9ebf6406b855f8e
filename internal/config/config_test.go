package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Profile.Handle != nil || cfg.Heatmap.Year != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[profile]
handle = "tourist"

[heatmap]
year = 2022
week-start = "sun"
timezone = "UTC"

[api]
timeout = "5s"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Profile.Handle == nil || *cfg.Profile.Handle != "tourist" {
		t.Fatalf("handle not decoded: %+v", cfg.Profile)
	}
	if cfg.Heatmap.Year == nil || *cfg.Heatmap.Year != 2022 {
		t.Fatalf("year not decoded: %+v", cfg.Heatmap)
	}
	if cfg.API.Timeout == nil || cfg.API.Timeout.Duration != 5*time.Second {
		t.Fatalf("timeout not decoded: %+v", cfg.API)
	}
	if cfg.API.BaseURL != nil {
		t.Fatalf("unset key should stay nil")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("log level not decoded: %+v", cfg.Log)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[heatmap]\ncolour = \"red\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "heatmap.colour") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\ntimeout = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected duration error")
	}
}

func TestParseWeekStart(t *testing.T) {
	cases := map[string]time.Weekday{
		"sat":      time.Saturday,
		"Saturday": time.Saturday,
		" mon ":    time.Monday,
		"SUN":      time.Sunday,
	}
	for in, want := range cases {
		got, err := ParseWeekStart(in)
		if err != nil {
			t.Fatalf("ParseWeekStart(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseWeekStart(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseWeekStart("someday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadTimezone(t *testing.T) {
	loc, err := LoadTimezone("")
	if err != nil || loc != time.Local {
		t.Fatalf("empty zone should be local: %v %v", loc, err)
	}
	loc, err = LoadTimezone("utc")
	if err != nil || loc != time.UTC {
		t.Fatalf("utc: %v %v", loc, err)
	}
	if _, err := LoadTimezone("Mars/Olympus"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestLoadEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CF_HANDLE=petr\nCFHEAT_TEST_ONLY=1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(HandleEnv, "tourist")
	t.Setenv("CFHEAT_TEST_ONLY", "")
	if err := os.Unsetenv("CFHEAT_TEST_ONLY"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	if err := LoadEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := EnvHandle(); got != "tourist" {
		t.Fatalf("existing variable overridden: %q", got)
	}
	if got := os.Getenv("CFHEAT_TEST_ONLY"); got != "1" {
		t.Fatalf("new variable not loaded: %q", got)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "cfheat", "config.toml") {
		t.Fatalf("config path = %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/tmp/state", "cfheat", "cfheat.log") {
		t.Fatalf("log path = %s", got)
	}
}
