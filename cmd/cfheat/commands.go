package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/cfheat/internal/canvas"
	"github.com/verte-zerg/cfheat/internal/heatmap"
	"github.com/verte-zerg/cfheat/internal/model"
	"github.com/verte-zerg/cfheat/internal/rating"
	"github.com/verte-zerg/cfheat/internal/server"
	"github.com/verte-zerg/cfheat/internal/stats"
	"github.com/verte-zerg/cfheat/internal/svg"
)

const defaultServeAddr = ":8080"

var (
	printColor bool

	exportOut string

	serveAddr       string
	serveOrigins    []string
	serveTTL        time.Duration
	serveRetryAfter time.Duration
	serveMaxHandles int
)

func newPrintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print [handle]",
		Short: "Print the heatmap to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPrintCmd,
	}
	cmd.Flags().BoolVar(&printColor, "color", false, "force color output even when stdout is not a terminal")
	return cmd
}

func runPrintCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args, true)
	if err != nil {
		return err
	}
	logger, err := newLogger("stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	out := cmd.OutOrStdout()
	plain := !printColor && !isTerminal(out)
	renderer := lipgloss.NewRenderer(out)
	switch {
	case printColor:
		renderer.SetColorProfile(termenv.TrueColor)
	case plain:
		renderer.SetColorProfile(termenv.Ascii)
	}

	c := canvas.New(canvas.WithRenderer(renderer), canvas.WithPlain(plain))
	r, err := heatmap.New(c, newCacheFactory(cfg, logger)(cfg.Handle),
		heatmap.WithLocation(cfg.Location),
		heatmap.WithWeekStart(cfg.WeekStart),
		heatmap.WithTransition(0),
		heatmap.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build renderer: %w", err)
	}
	if err := r.Render(cmd.Context(), cfg.Year); err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}

	title := renderer.NewStyle().Bold(true).Render(cfg.Handle) + "  " + optionLabel(r.Options(), r.Active())
	if _, err := fmt.Fprintf(out, "%s\n\n%s\n\n%s\n", title, c.String(), legend(renderer, plain)); err != nil {
		return fmt.Errorf("failed to write heatmap: %w", err)
	}
	if len(r.Result().Index) <= 1 {
		logErrf("No accepted submissions found for %s.\n", cfg.Handle)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [handle]",
		Short: "Write the heatmap as an SVG document",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "output path, - for stdout (default <handle>.svg)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args, true)
	if err != nil {
		return err
	}
	logger, err := newLogger("stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	doc := svg.New()
	r, err := heatmap.New(doc, newCacheFactory(cfg, logger)(cfg.Handle),
		heatmap.WithLocation(cfg.Location),
		heatmap.WithWeekStart(cfg.WeekStart),
		heatmap.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build renderer: %w", err)
	}
	if err := r.Render(cmd.Context(), cfg.Year); err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}

	path := exportOut
	if path == "" {
		path = cfg.Handle + ".svg"
	}
	if path == "-" {
		if _, err := doc.WriteTo(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to write svg: %w", err)
		}
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write svg: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	logErrf("Wrote %s\n", path)
	return nil
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [handle]",
		Short: "Print per-year solve statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSummaryCmd,
	}
}

func runSummaryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args, true)
	if err != nil {
		return err
	}
	logger, err := newLogger("stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	res := newCacheFactory(cfg, logger)(cfg.Handle).Get(cmd.Context())
	if err := stats.RenderSummary(cmd.OutOrStdout(), cfg.Handle, stats.Summarize(res)); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve heatmaps over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed CORS origin (repeatable, default any)")
	cmd.Flags().DurationVar(&serveTTL, "ttl", server.DefaultTTL, "how long a fetched history is served before refetching")
	cmd.Flags().DurationVar(&serveRetryAfter, "retry-after", server.DefaultRetryAfter, "how long a failed or empty history is served before refetching")
	cmd.Flags().IntVar(&serveMaxHandles, "max-handles", server.DefaultMaxHandles, "maximum number of handles cached at once")
	return cmd
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("log-encoding") {
		logEncoding = "json"
	}
	cfg, err := resolveConfig(cmd, args, false)
	if err != nil {
		return err
	}
	if serveTTL <= 0 || serveRetryAfter <= 0 || serveMaxHandles <= 0 {
		return fmt.Errorf("--ttl, --retry-after and --max-handles must be positive")
	}
	logger, err := newLogger("stdout")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	srv := server.New(newCacheFactory(cfg, logger),
		server.WithLogger(logger),
		server.WithLocation(cfg.Location),
		server.WithWeekStart(cfg.WeekStart),
		server.WithAllowedOrigins(serveOrigins...),
		server.WithTTL(serveTTL),
		server.WithRetryAfter(serveRetryAfter),
		server.WithMaxHandles(serveMaxHandles))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("starting server", zap.String("addr", serveAddr), zap.String("api", cfg.APIBaseURL))
	return srv.Start(ctx, serveAddr)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func optionLabel(opts []heatmap.YearOption, value int) string {
	for _, opt := range opts {
		if opt.Value == value {
			return opt.Label
		}
	}
	if value == model.RollingYear {
		return heatmap.RollingLabel
	}
	return fmt.Sprintf("%d", value)
}

// legend lists the tiers from easiest to hardest.
func legend(r *lipgloss.Renderer, plain bool) string {
	tiers := rating.Default().Tiers()
	parts := make([]string, 0, len(tiers)+1)
	for i := len(tiers) - 1; i >= 0; i-- {
		tier := tiers[i]
		if plain {
			parts = append(parts, fmt.Sprintf("%d+", tier.MinRating))
			continue
		}
		glyph := r.NewStyle().Foreground(lipgloss.Color(tier.Color.Over(rating.White).Hex())).Render("■")
		parts = append(parts, fmt.Sprintf("%s %d", glyph, tier.MinRating))
	}
	return strings.Join(parts, "  ")
}
