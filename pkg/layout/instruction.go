package layout

import (
	"encoding/json"
	"strings"

	"github.com/matzehuels/slidegrid/pkg/grid"
)

// Op is the kind of drawing operation an [Instruction] describes.
type Op string

const (
	OpImage Op = "image"
	OpText  Op = "text"
	OpShape Op = "shape"
)

// TextRun is a span of uniformly styled text. Size is in points, Color is a
// six digit hex RGB value without '#'. An empty Color means black.
type TextRun struct {
	Text  string  `json:"text"`
	Size  float64 `json:"size"`
	Bold  bool    `json:"bold,omitempty"`
	Color string  `json:"color,omitempty"`
}

// ShapeStyle describes a filled, outlined rectangle with an optional centred
// label. It is only emitted for the debug grid overlay.
type ShapeStyle struct {
	Fill       string  `json:"fill"`
	Line       string  `json:"line"`
	LineWidth  float64 `json:"line_width"`
	Label      string  `json:"label,omitempty"`
	LabelColor string  `json:"label_color,omitempty"`
	LabelSize  float64 `json:"label_size,omitempty"`
}

// Instruction is one positioned drawing operation. Rect is absolute, in
// canvas units. Span is the grid span the element belongs to and Item names
// the payload element that produced it.
type Instruction struct {
	Slide int         `json:"slide"`
	Op    Op          `json:"op"`
	Ref   string      `json:"ref,omitempty"`
	Rect  grid.Rect   `json:"rect"`
	Span  grid.Span   `json:"span"`
	Runs  []TextRun   `json:"runs,omitempty"`
	Style *ShapeStyle `json:"style,omitempty"`
	Item  string      `json:"item"`
}

// Text joins the instruction's runs.
func (in Instruction) Text() string {
	var b strings.Builder
	for _, r := range in.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Slide is one canvas worth of instructions, in emission order, together with
// the grid spans reserved on it.
type Slide struct {
	Index        int           `json:"index"`
	Instructions []Instruction `json:"instructions"`
	Reserved     []grid.Span   `json:"reserved"`
}

// Sequence is the complete output of a layout run. It is read-only once
// returned.
type Sequence struct {
	Canvas  grid.Canvas `json:"canvas"`
	Slides  []Slide     `json:"slides"`
	Dropped int         `json:"dropped"`
}

// Len returns the number of slides.
func (s *Sequence) Len() int { return len(s.Slides) }

// Count returns how many instructions of the given op the sequence holds.
func (s *Sequence) Count(op Op) int {
	n := 0
	for _, sl := range s.Slides {
		for _, in := range sl.Instructions {
			if in.Op == op {
				n++
			}
		}
	}
	return n
}

// Images returns every image instruction in order.
func (s *Sequence) Images() []Instruction {
	var out []Instruction
	for _, sl := range s.Slides {
		for _, in := range sl.Instructions {
			if in.Op == OpImage {
				out = append(out, in)
			}
		}
	}
	return out
}

// MarshalSequence serializes a sequence to indented JSON.
func MarshalSequence(s *Sequence) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSequence parses JSON produced by [MarshalSequence].
func UnmarshalSequence(data []byte) (*Sequence, error) {
	var s Sequence
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
