package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/slidegrid/pkg/grid"
	"github.com/matzehuels/slidegrid/pkg/layout"
)

// Grid map styles
var (
	cellUsedStyle = lipgloss.NewStyle().Foreground(colorCyan)
	cellFreeStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// previewMaxText truncates the content column.
const previewMaxText = 40

// previewCommand creates the preview command, an interactive slide browser.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		images string
		remote bool
		lf     layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "preview [payload.json | slides.json]",
		Short: "Browse slides in the terminal",
		Long: `Browse slides in the terminal.

The preview command shows one slide at a time: a map of the grid with the
reserved cells, and a table of every drawing instruction with its cell span
and position. A payload is laid out first; a slides.json file is shown as is.

Keys: ←/→ change slide, ↑/↓ scroll, q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := c.previewSequence(cmd.Context(), args[0], runnerOpts{
				imageRoot:   imageRoot(images, args[0]),
				allowRemote: remote,
			}, lf)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(newPreviewModel(seq), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&images, "images", "", "directory image references resolve against")
	cmd.Flags().BoolVar(&remote, "remote", false, "allow http(s) image references")
	lf.register(cmd)

	return cmd
}

// previewSequence loads a sequence file or lays out a payload.
func (c *CLI) previewSequence(ctx context.Context, input string, ro runnerOpts, lf layoutFlags) (*layout.Sequence, error) {
	if strings.HasSuffix(input, sequenceSuffix) {
		return readSequence(input)
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	payload, err := readPayload(input)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, cfg, ro)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := lf.options(cfg)
	opts.Logger = loggerFromContext(ctx)
	return runner.Layout(ctx, payload, opts)
}

// =============================================================================
// PreviewModel - Interactive slide browser
// =============================================================================

// PreviewModel is the bubbletea model for browsing a slide sequence.
type PreviewModel struct {
	Seq    *layout.Sequence
	Slide  int
	Offset int
	Height int
}

func newPreviewModel(seq *layout.Sequence) PreviewModel {
	return PreviewModel{Seq: seq, Height: 12}
}

func (m PreviewModel) Init() tea.Cmd {
	return nil
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h", "pgup":
			if m.Slide > 0 {
				m.Slide--
				m.Offset = 0
			}
		case "right", "l", "pgdown", " ":
			if m.Slide < m.Seq.Len()-1 {
				m.Slide++
				m.Offset = 0
			}
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		case "down", "j":
			if m.Offset < len(m.instructions())-m.Height {
				m.Offset++
			}
		case "home", "g":
			m.Slide, m.Offset = 0, 0
		case "end", "G":
			m.Slide, m.Offset = max(m.Seq.Len()-1, 0), 0
		}
	case tea.WindowSizeMsg:
		rows := m.Seq.Canvas.Rows
		m.Height = max(msg.Height-rows-10, 5)
	}
	return m, nil
}

func (m PreviewModel) instructions() []layout.Instruction {
	if m.Slide >= m.Seq.Len() {
		return nil
	}
	return m.Seq.Slides[m.Slide].Instructions
}

func (m PreviewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Slide %d/%d", m.Slide+1, m.Seq.Len())))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render("←/→ slide  ↑/↓ scroll  q quit"))
	b.WriteString("\n\n")

	if m.Seq.Len() == 0 {
		b.WriteString(StyleDim.Render("no slides"))
		return b.String()
	}
	slide := m.Seq.Slides[m.Slide]
	b.WriteString(occupancyMap(m.Seq.Canvas, slide.Reserved))
	b.WriteString("\n")

	ins := slide.Instructions
	end := min(m.Offset+m.Height, len(ins))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		in := ins[i]
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			string(in.Op),
			in.Item,
			in.Span.String(),
			truncate(instructionContent(in), previewMaxText),
			fmt.Sprintf("%.2f,%.2f %.2fx%.2f", in.Rect.X, in.Rect.Y, in.Rect.W, in.Rect.H),
		})
	}

	t := newTable("#", "Op", "Item", "Span", "Content", "Rect (in)").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(ins) {
				return lipgloss.NewStyle()
			}
			switch ins[idx].Op {
			case layout.OpImage:
				return lipgloss.NewStyle().Foreground(colorGreen)
			case layout.OpShape:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d-%d/%d instructions]", min(m.Offset+1, len(ins)), end, len(ins))))
	if m.Seq.Dropped > 0 {
		b.WriteString("  ")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%d options dropped", m.Seq.Dropped)))
	}
	return b.String()
}

// occupancyMap draws the slide grid with reserved cells filled.
func occupancyMap(c grid.Canvas, reserved []grid.Span) string {
	used := make([][]bool, c.Rows)
	for r := range used {
		used[r] = make([]bool, c.Cols)
	}
	for _, s := range reserved {
		for r := s.Row; r < s.Row+s.RowSpan && r < c.Rows; r++ {
			for col := s.Col; col < s.Col+s.ColSpan && col < c.Cols; col++ {
				used[r][col] = true
			}
		}
	}

	var b strings.Builder
	for _, row := range used {
		b.WriteString("  ")
		for _, u := range row {
			if u {
				b.WriteString(cellUsedStyle.Render("██"))
			} else {
				b.WriteString(cellFreeStyle.Render("··"))
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// instructionContent summarizes what an instruction draws.
func instructionContent(in layout.Instruction) string {
	switch in.Op {
	case layout.OpImage:
		return in.Ref
	case layout.OpShape:
		if in.Style != nil {
			return in.Style.Label
		}
		return ""
	}
	return strings.ReplaceAll(in.Text(), "\n", " ⏎ ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
