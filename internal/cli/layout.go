package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slidegrid/pkg/layout"
)

// layoutCommand creates the layout command for computing slide sequences.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		images  string
		noCache bool
		remote  bool
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [payload.json]",
		Short: "Compute the slide sequence for a payload",
		Long: `Compute the slide sequence for a payload.

The layout command places the payload onto slides and writes the result as
<input>.slides.json (same format as 'generate -f json'). The sequence can be
rendered with 'render' or browsed with 'preview'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, runnerOpts{
				noCache:     noCache,
				imageRoot:   imageRoot(images, args[0]),
				allowRemote: remote,
			}, lf)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.slides.json)")
	cmd.Flags().StringVar(&images, "images", "", "directory image references resolve against")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&remote, "remote", false, "allow http(s) image references")
	lf.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, ro runnerOpts, lf layoutFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	payload, err := readPayload(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, ro)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := lf.options(cfg)
	opts.Logger = loggerFromContext(ctx)

	spinner := startSpinner(ctx, "Computing layout...")
	prog := newProgress(c.Logger)

	seq, cacheHit, err := runner.LayoutWithCacheInfo(ctx, payload, opts)
	if err != nil {
		spinner.Fail("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Placed %d products", len(payload.Items)))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input) + sequenceSuffix
	}
	data, err := layout.MarshalSequence(seq)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(payload.Items), seq.Len(), seq.Dropped, cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}
