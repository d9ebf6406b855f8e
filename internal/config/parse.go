package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// HandleEnv names the environment variable holding the default handle.
const HandleEnv = "CF_HANDLE"

// LoadEnv reads KEY=VALUE pairs from the given dotenv files into the process
// environment without overriding variables already set. Missing files are
// skipped.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat env file: %w", err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// EnvHandle returns the handle from the environment, if any.
func EnvHandle() string {
	return strings.TrimSpace(os.Getenv(HandleEnv))
}

// ParseWeekStart maps a weekday name (full or three-letter) to a weekday.
func ParseWeekStart(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if key == full || key == full[:3] {
			return wd, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid week start %q (use a weekday name such as sat)", name)
}

// LoadTimezone resolves an IANA zone name. "" and "local" mean the host zone.
func LoadTimezone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "", "local":
		return time.Local, nil
	case "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
