package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/store"
)

// historyCommand creates the history command for past generations.
func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generations",
		Long: `List recent generations.

Every 'generate' run is recorded locally with its statistics and slide
sequence until it expires. Use 'history show <id>' for details.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withHistory(func(st store.Store) error {
				return c.runHistoryList(cmd.Context(), st, limit)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")

	cmd.AddCommand(c.historyShowCommand())
	cmd.AddCommand(c.historyDeleteCommand())
	cmd.AddCommand(c.historyPruneCommand())

	return cmd
}

// withHistory opens the history store for fn.
func (c *CLI) withHistory(fn func(store.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st := c.newHistory(cfg)
	if st == nil {
		printWarning("History is disabled")
		return nil
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) runHistoryList(ctx context.Context, st store.Store, limit int) error {
	records, err := st.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		printInfo("No generations recorded")
		return nil
	}
	fmt.Fprintln(out, historyTable(records))
	return nil
}

// historyTable renders records newest first.
func historyTable(records []*store.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			shortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			truncate(orDash(r.Title), 30),
			fmt.Sprint(r.Items),
			fmt.Sprint(r.Slides),
			fmt.Sprint(r.Dropped),
			strings.Join(r.Formats, ","),
		})
	}

	return newTable("ID", "Created", "Title", "Products", "Slides", "Dropped", "Formats").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 0:
				return StyleHighlight
			case col >= 3 && col <= 5:
				if col == 5 && records[row].Dropped > 0 {
					return StyleWarning
				}
				return StyleNumber
			}
			return StyleValue
		}).
		Render()
}

// historyShowCommand creates the "history show" subcommand.
func (c *CLI) historyShowCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one generation",
		Long: `Show one generation.

With --output the recorded slide sequence is written as a slides.json file
that 'render' and 'preview' accept. The id may be abbreviated to any unique
prefix shown by 'history'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withHistory(func(st store.Store) error {
				rec, err := findRecord(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				printRecord(rec)
				if output == "" {
					return nil
				}
				return writeRecordSequence(rec, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the slide sequence to this file")

	return cmd
}

// historyDeleteCommand creates the "history delete" subcommand.
func (c *CLI) historyDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withHistory(func(st store.Store) error {
				rec, err := findRecord(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				if err := st.Delete(cmd.Context(), rec.ID); err != nil {
					return err
				}
				printSuccess("Deleted %s", rec.ID)
				return nil
			})
		},
	}
}

// historyPruneCommand creates the "history prune" subcommand.
func (c *CLI) historyPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired generations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withHistory(func(st store.Store) error {
				if err := st.Cleanup(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Pruned expired generations")
				return nil
			})
		},
	}
}

// findRecord resolves a full id or a unique prefix of a listed id.
func findRecord(ctx context.Context, st store.Store, id string) (*store.Record, error) {
	if store.ValidateID(id) == nil {
		return st.Get(ctx, id)
	}
	records, err := st.List(ctx, store.DefaultListLimit)
	if err != nil {
		return nil, err
	}
	var match *store.Record
	for _, r := range records {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("id prefix %q is ambiguous", id)
		}
		match = r
	}
	if match == nil {
		return nil, fmt.Errorf("no generation matches %q", id)
	}
	return st.Get(ctx, match.ID)
}

func printRecord(r *store.Record) {
	printKeyValue("ID", r.ID)
	printKeyValue("Title", orDash(r.Title))
	printKeyValue("Created", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	printKeyValue("Expires", r.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	printKeyValue("Products", fmt.Sprint(r.Items))
	printKeyValue("Slides", fmt.Sprint(r.Slides))
	printKeyValue("Dropped", fmt.Sprint(r.Dropped))
	printKeyValue("Formats", strings.Join(r.Formats, ", "))
	printKeyValue("Layout", formatDuration(r.LayoutTime))
	printKeyValue("Render", formatDuration(r.RenderTime))
	printKeyValue("Payload", StyleDim.Render(r.PayloadHash))
}

func writeRecordSequence(r *store.Record, path string) error {
	if r.Sequence == nil {
		return fmt.Errorf("generation %s has no recorded sequence", r.ID)
	}
	data, err := layout.MarshalSequence(r.Sequence)
	if err != nil {
		return fmt.Errorf("encode sequence: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	printFile(path)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
