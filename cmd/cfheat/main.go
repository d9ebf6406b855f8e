// Package main provides the CLI entrypoint for cfheat.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/cfheat/internal/aggregate"
	"github.com/verte-zerg/cfheat/internal/codeforces"
	"github.com/verte-zerg/cfheat/internal/config"
	"github.com/verte-zerg/cfheat/internal/heatmapui"
	"github.com/verte-zerg/cfheat/internal/logging"
	"github.com/verte-zerg/cfheat/internal/model"
)

const (
	defaultWeekStart   = "sat"
	defaultTimezone    = "local"
	defaultLogLevel    = "info"
	defaultLogEncoding = "console"
	maxYear            = 9999
)

var (
	heatYear         int
	heatWeekStart    string
	heatTimezone     string
	heatFallbackYear int

	apiBaseURL string
	apiTimeout time.Duration

	logLevel    string
	logEncoding string
	logFile     string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cfheat [handle]",
		Short:         "Codeforces submission heatmap",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadEnv(".env")
		},
		RunE: runUICmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&heatYear, "year", model.RollingYear, "calendar year to show (0 for the last 365 days)")
	flags.StringVar(&heatWeekStart, "week-start", defaultWeekStart, "first weekday of the rolling grid")
	flags.StringVar(&heatTimezone, "timezone", defaultTimezone, "IANA zone days are bucketed in (local, utc, Europe/Moscow...)")
	flags.IntVar(&heatFallbackYear, "fallback-year", aggregate.DefaultFallbackYear, "first selectable year when the history is empty")
	flags.StringVar(&apiBaseURL, "api-url", codeforces.DefaultBaseURL, "Codeforces API base URL")
	flags.DurationVar(&apiTimeout, "timeout", codeforces.DefaultTimeout, "HTTP timeout for the history fetch")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&logEncoding, "log-encoding", defaultLogEncoding, "log encoding (console, json)")
	flags.StringVar(&logFile, "log-file", "", "log destination (stdout, stderr or a path)")

	rootCmd.AddCommand(newPrintCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runUICmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args, true)
	if err != nil {
		return err
	}
	logPath := logFile
	if logPath == "" {
		logPath = config.DefaultLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	logger, err := newLogger(logPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ui, err := heatmapui.NewModel(heatmapui.Options{
		Handle:    cfg.Handle,
		Year:      cfg.Year,
		NewCache:  newCacheFactory(cfg, logger),
		Location:  cfg.Location,
		WeekStart: cfg.WeekStart,
		Logger:    logger,
		LogPath:   logPath,
	})
	if err != nil {
		return fmt.Errorf("failed to build UI: %w", err)
	}
	program := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveConfig merges the config file, environment and flags. The handle
// comes from args, then CF_HANDLE, then the config file.
func resolveConfig(cmd *cobra.Command, args []string, needHandle bool) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "year", &heatYear, fileCfg.Heatmap.Year)
	applyStringConfig(cmd, "week-start", &heatWeekStart, fileCfg.Heatmap.WeekStart)
	applyStringConfig(cmd, "timezone", &heatTimezone, fileCfg.Heatmap.Timezone)
	applyIntConfig(cmd, "fallback-year", &heatFallbackYear, fileCfg.Heatmap.FallbackYear)
	applyStringConfig(cmd, "api-url", &apiBaseURL, fileCfg.API.BaseURL)
	applyDurationConfig(cmd, "timeout", &apiTimeout, fileCfg.API.Timeout)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-encoding", &logEncoding, fileCfg.Log.Encoding)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)

	handle := ""
	if len(args) > 0 {
		handle = strings.TrimSpace(args[0])
	}
	if handle == "" {
		handle = config.EnvHandle()
	}
	if handle == "" && fileCfg.Profile.Handle != nil {
		handle = strings.TrimSpace(*fileCfg.Profile.Handle)
	}
	if needHandle && handle == "" {
		return model.Config{}, fmt.Errorf("handle is required: pass it as an argument, export %s or set [profile] handle in %s", config.HandleEnv, config.DefaultConfigPath())
	}

	weekStart, err := config.ParseWeekStart(heatWeekStart)
	if err != nil {
		return model.Config{}, err
	}
	loc, err := config.LoadTimezone(heatTimezone)
	if err != nil {
		return model.Config{}, err
	}

	cfg := model.Config{
		Handle:       handle,
		Year:         heatYear,
		WeekStart:    weekStart,
		Location:     loc,
		FallbackYear: heatFallbackYear,
		APIBaseURL:   apiBaseURL,
		APITimeout:   apiTimeout,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func newLogger(defaultOutput string) (*zap.Logger, error) {
	output := logFile
	if output == "" {
		output = defaultOutput
	}
	logger, err := logging.New(logging.Options{Level: logLevel, Encoding: logEncoding, Output: output})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func newCacheFactory(cfg model.Config, logger *zap.Logger) func(handle string) *aggregate.Cache {
	client := codeforces.NewClient(
		codeforces.WithBaseURL(cfg.APIBaseURL),
		codeforces.WithTimeout(cfg.APITimeout),
		codeforces.WithLocation(cfg.Location),
	)
	return func(handle string) *aggregate.Cache {
		return aggregate.NewCache(client, handle,
			aggregate.WithLogger(logger),
			aggregate.WithLocation(cfg.Location),
			aggregate.WithFallbackYear(cfg.FallbackYear))
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create or edit the config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# cfheat configuration
# Uncomment a value to enable it. CLI flags override config values.

[profile]
# handle = "tourist"       # Default handle (%s overrides it)

[heatmap]
# year = 0                 # Calendar year, 0 for the last 365 days
# week-start = %q         # First weekday of the rolling grid
# timezone = %q         # IANA zone days are bucketed in
# fallback-year = %d      # First selectable year of an empty history

[api]
# base-url = %q
# timeout = %q             # HTTP timeout for the history fetch

[log]
# level = %q             # debug, info, warn or error
# encoding = %q       # console or json
# file = ""                # stdout, stderr or a path
`,
		config.HandleEnv,
		defaultWeekStart,
		defaultTimezone,
		aggregate.DefaultFallbackYear,
		codeforces.DefaultBaseURL,
		codeforces.DefaultTimeout.String(),
		defaultLogLevel,
		defaultLogEncoding,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Handle != "" && !codeforces.ValidHandle(cfg.Handle) {
		return fmt.Errorf("invalid handle %q", cfg.Handle)
	}
	if cfg.Year < 0 || cfg.Year > maxYear {
		return fmt.Errorf("--year must be 0 or between 1 and %d", maxYear)
	}
	if cfg.FallbackYear <= 0 || cfg.FallbackYear > maxYear {
		return fmt.Errorf("--fallback-year must be between 1 and %d", maxYear)
	}
	if cfg.APITimeout < 0 {
		return fmt.Errorf("--timeout must be >= 0")
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return fmt.Errorf("--api-url must not be empty")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
