package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slidegrid/internal/config"
	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/pipeline"
	"github.com/matzehuels/slidegrid/pkg/store"
)

// generateOpts holds the flags of the generate command.
type generateOpts struct {
	output      string
	formats     string
	images      string
	dpi         float64
	noCache     bool
	refresh     bool
	allowRemote bool
	noHistory   bool
	layout      layoutFlags
}

// generateCommand creates the generate command: payload in, documents out.
func (c *CLI) generateCommand() *cobra.Command {
	var o generateOpts

	cmd := &cobra.Command{
		Use:   "generate [payload.json]",
		Short: "Lay out a payload and render it",
		Long: `Lay out a payload and render it.

The generate command reads a JSON payload (cover, title and products), places
it onto slides and writes one document per requested format next to the
payload, or at --output.

Image references resolve against --images (default: the payload's directory).
Image sizes, layouts and documents are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args[0], o)
		},
	}

	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output base path (default: <input> without extension)")
	cmd.Flags().StringVarP(&o.formats, "format", "f", "", "output format(s): pdf (default), svg, png, json, xlsx (comma-separated)")
	cmd.Flags().StringVar(&o.images, "images", "", "directory image references resolve against")
	cmd.Flags().Float64Var(&o.dpi, "dpi", 0, "raster resolution for png and svg images")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "recompute cached layouts and documents")
	cmd.Flags().BoolVar(&o.allowRemote, "remote", false, "allow http(s) image references")
	cmd.Flags().BoolVar(&o.noHistory, "no-history", false, "do not record this run")
	o.layout.register(cmd)

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, input string, o generateOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	payload, err := readPayload(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, runnerOpts{
		noCache:     o.noCache,
		imageRoot:   imageRoot(o.images, input),
		allowRemote: o.allowRemote || cfg.Server.AllowRemote,
	})
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := o.layout.options(cfg)
	opts.Formats = parseFormats(o.formats)
	opts.DPI = o.dpi
	opts.Refresh = o.refresh
	opts.Logger = loggerFromContext(ctx)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	prog := newProgress(opts.Logger)
	spinner := startSpinner(ctx, fmt.Sprintf("Placing %d products...", len(payload.Items)))

	res, err := runner.Execute(ctx, payload, opts)
	if err != nil {
		spinner.Fail("Generation failed")
		return err
	}
	spinner.Stop()
	prog.step("generated", "slides", res.Stats.Slides, "dropped", res.Stats.Dropped,
		"layout_cached", res.CacheInfo.LayoutHit, "render_cached", res.CacheInfo.RenderHit)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(res.Artifacts, res.Formats, basePath(o.output, input))
	if err != nil {
		return err
	}
	prog.step("wrote artifacts", "files", len(paths))

	if !o.noHistory {
		c.record(ctx, cfg, res, payload.Title)
	}

	printSuccess("Generated %d slides", res.Stats.Slides)
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats.Items, res.Stats.Slides, res.Stats.Dropped, res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit)
	printDetail("layout %s · render %s", formatDuration(res.Stats.PrefetchTime+res.Stats.LayoutTime), formatDuration(res.Stats.RenderTime))
	printNewline()
	printNextStep("Preview", appName+" preview "+input)

	return nil
}

// record saves the run to the local history.
func (c *CLI) record(ctx context.Context, cfg config.Config, res *pipeline.Result, title string) {
	hist := c.newHistory(cfg)
	if hist == nil {
		return
	}
	defer hist.Close()
	rec := store.NewRecord(res, title, cfg.Store.TTL)
	if err := hist.Put(ctx, rec); err != nil {
		c.Logger.Warn("record generation", "err", err)
		return
	}
	c.Logger.Debug("recorded generation", "id", rec.ID)
}

// readPayload loads and validates a payload file.
func readPayload(path string) (*layout.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload %s: %w", path, err)
	}
	p, err := pipeline.ParsePayload(data)
	if err != nil {
		return nil, fmt.Errorf("payload %s: %w", path, err)
	}
	return p, nil
}

// imageRoot returns the directory image references resolve against.
func imageRoot(flag, input string) string {
	if flag != "" {
		return flag
	}
	return filepath.Dir(input)
}
