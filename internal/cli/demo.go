package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slidegrid/pkg/layout"
)

// demoCommand creates the demo command that writes a sample payload.
func (c *CLI) demoCommand() *cobra.Command {
	var (
		output string
		opts   layout.DemoOptions
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write a sample payload",
		Long: `Write a sample payload.

The demo command builds a catalogue of products that all share one image.
About half of the products carry options. The same seed always produces the
same payload. Without --output the payload is printed to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDemo(output, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVarP(&opts.Products, "products", "n", layout.DefaultDemoProducts, "number of products")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", layout.DefaultDemoSeed, "random seed")
	cmd.Flags().StringVar(&opts.Image, "image", layout.DefaultDemoImage, "image reference every product uses")
	cmd.Flags().IntVar(&opts.MaxOptions, "max-options", 0, "maximum options per product (default: sub-grid size)")

	return cmd
}

func (c *CLI) runDemo(output string, opts layout.DemoOptions) error {
	if opts.Products < 0 || opts.MaxOptions < 0 {
		return fmt.Errorf("products and max-options must not be negative")
	}
	p := layout.Demo(opts)
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	data = append(data, '\n')

	if output == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	c.Logger.Debug("wrote demo payload", "products", len(p.Items), "seed", opts.Seed)

	printSuccess("Wrote %d products", len(p.Items))
	printFile(output)
	printNewline()
	printNextStep("Generate", appName+" generate "+output+" --images <dir containing "+opts.Image+">")
	return nil
}
