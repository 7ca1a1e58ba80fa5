package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/pipeline"
)

// renderCommand creates the render command for drawing a computed sequence.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output       string
		formats      string
		images       string
		dpi          float64
		noCache      bool
		placeholders bool
	)

	cmd := &cobra.Command{
		Use:   "render [slides.json]",
		Short: "Render a computed slide sequence",
		Long: `Render a computed slide sequence.

The render command takes a slides.json file (produced by 'layout') and writes
it as PDF, SVG, PNG, JSON or XLSX. The sequence contains all positioning
information, so this step only draws.

With --placeholders, images are drawn as grey boxes and never read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := parseFormats(formats)
			if err := pipeline.ValidateFormats(fs); err != nil {
				return err
			}
			opts := pipeline.Options{Formats: fs, DPI: dpi}
			return c.runRender(cmd.Context(), args[0], output, opts, runnerOpts{
				noCache:   noCache,
				imageRoot: imageRoot(images, args[0]),
			}, placeholders)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: <input> without extension)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): pdf (default), svg, png, json, xlsx (comma-separated)")
	cmd.Flags().StringVar(&images, "images", "", "directory image references resolve against")
	cmd.Flags().Float64Var(&dpi, "dpi", 0, "raster resolution for png and svg images")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&placeholders, "placeholders", false, "draw image placeholders instead of images")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.Options, ro runnerOpts, placeholders bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	seq, err := readSequence(input)
	if err != nil {
		return err
	}

	if placeholders {
		// placeholder documents share cache keys with real ones
		ro.noCache = true
	}
	runner, err := c.newRunner(ctx, cfg, ro)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	if placeholders {
		runner.Source = nil
	}
	opts.Logger = loggerFromContext(ctx)

	spinner := startSpinner(ctx, fmt.Sprintf("Rendering %d slides...", seq.Len()))

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, seq, opts)
	if err != nil {
		spinner.Fail("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	paths, err := writeArtifacts(artifacts, opts.Formats, basePath(output, input))
	if err != nil {
		return err
	}

	printSuccess("Rendered %d slides", seq.Len())
	for _, p := range paths {
		printFile(p)
	}
	if cacheHit {
		printDetail("%s", iconCached)
	}
	return nil
}

// readSequence loads a slides.json file.
func readSequence(path string) (*layout.Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence %s: %w", path, err)
	}
	seq, err := layout.UnmarshalSequence(data)
	if err != nil {
		return nil, fmt.Errorf("sequence %s: %w", path, err)
	}
	return seq, nil
}
