package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/slidegrid/internal/config"
	"github.com/matzehuels/slidegrid/pkg/buildinfo"
	"github.com/matzehuels/slidegrid/pkg/cache"
	"github.com/matzehuels/slidegrid/pkg/httputil"
	"github.com/matzehuels/slidegrid/pkg/imageprobe"
	"github.com/matzehuels/slidegrid/pkg/pipeline"
	"github.com/matzehuels/slidegrid/pkg/render"
	"github.com/matzehuels/slidegrid/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// sequenceSuffix names layout output files next to their payload.
	sequenceSuffix = ".slides.json"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Slidegrid lays out product catalogues as slide decks",
		Long:         `Slidegrid places a cover and a list of products onto a grid of slides, fitting images and captions into cells, and renders the deck as PDF, SVG, PNG, JSON or XLSX.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.config/slidegrid/slidegrid.toml)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.demoCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file named by --config, or the default one.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects how the CLI runner reaches caches and images.
type runnerOpts struct {
	noCache     bool
	imageRoot   string
	allowRemote bool
}

// newRunner creates a pipeline runner for CLI use. Images resolve against
// imageRoot; remote images are fetched only when allowed.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, ro runnerOpts) (*pipeline.Runner, error) {
	ch, err := newCache(ctx, cfg, ro.noCache)
	if err != nil {
		return nil, err
	}
	var client *httputil.Client
	if ro.allowRemote {
		client = httputil.NewClient(ch, cache.TTLImage, nil)
	}
	src := imageprobe.NewRouter(ro.imageRoot, client)
	return pipeline.NewRunner(ch, cfg.Cache.Keyer(), c.Logger, src), nil
}

func newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cfg.Cache.OpenCache(ctx)
}

// newHistory opens the local generation history. Failures disable history
// rather than failing the command.
func (c *CLI) newHistory(cfg config.Config) store.Store {
	if cfg.Store.Backend == config.BackendNone {
		return nil
	}
	dir := cfg.Store.Dir
	if dir == "" {
		base, err := config.Dir()
		if err != nil {
			c.Logger.Warn("history disabled", "err", err)
			return nil
		}
		dir = filepath.Join(base, "history")
	}
	st, err := store.NewFileStore(dir)
	if err != nil {
		c.Logger.Warn("history disabled", "err", err)
		return nil
	}
	return st
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/slidegrid/).
func cacheDir() (string, error) {
	return config.CacheDir()
}

// basePath returns the output base (path without extension). An explicit
// output wins; otherwise the input path minus its extension is used.
func basePath(output, input string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	if input == "" {
		return "slides"
	}
	base := strings.TrimSuffix(input, sequenceSuffix)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags holds canvas and placement overrides shared by several commands.
// Zero values keep the configured setting.
type layoutFlags struct {
	width, height float64
	gapX, gapY    float64
	rows, cols    int
	subRows       int
	subCols       int
	debug         bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "slide width in inches")
	cmd.Flags().Float64Var(&f.height, "height", 0, "slide height in inches")
	cmd.Flags().Float64Var(&f.gapX, "gap-x", 0, "horizontal gap in inches")
	cmd.Flags().Float64Var(&f.gapY, "gap-y", 0, "vertical gap in inches")
	cmd.Flags().IntVar(&f.rows, "rows", 0, "grid rows per slide")
	cmd.Flags().IntVar(&f.cols, "cols", 0, "grid columns per slide")
	cmd.Flags().IntVar(&f.subRows, "sub-rows", 0, "option sub-grid rows")
	cmd.Flags().IntVar(&f.subCols, "sub-cols", 0, "option sub-grid columns")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "draw the grid overlay")
}

// options merges the config with flag overrides.
func (f *layoutFlags) options(cfg config.Config) pipeline.Options {
	l := cfg.LayoutOptions()
	if f.width > 0 {
		l.Canvas.Width = f.width
	}
	if f.height > 0 {
		l.Canvas.Height = f.height
	}
	if f.gapX > 0 {
		l.Canvas.GapX = f.gapX
	}
	if f.gapY > 0 {
		l.Canvas.GapY = f.gapY
	}
	if f.rows > 0 {
		l.Canvas.Rows = f.rows
	}
	if f.cols > 0 {
		l.Canvas.Cols = f.cols
	}
	if f.subRows > 0 {
		l.SubRows = f.subRows
	}
	if f.subCols > 0 {
		l.SubCols = f.subCols
	}
	l.Debug = l.Debug || f.debug
	return pipeline.Options{Layout: l, PrefetchLimit: cfg.Layout.PrefetchLimit}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// writeArtifacts writes each rendered format to base.<ext> and returns the
// paths in format order. JSON goes to base.slides.json so it never replaces
// the payload it came from.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	var paths []string
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		path := base + "." + f
		if f == string(render.FormatJSON) {
			path = base + sequenceSuffix
		}
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// formatDuration rounds d for display.
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
