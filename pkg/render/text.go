package render

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/matzehuels/slidegrid/pkg/layout"
)

const (
	pointsPerInch = 72.0
	lineSpacing   = 1.2
	placeholderBG = "EEEEEE"
	placeholderFG = "999999"
)

// measureFunc returns the width of s set in run's style, in canvas inches.
type measureFunc func(s string, run layout.TextRun) float64

type textWord struct {
	text string
	run  layout.TextRun
	x    float64
}

type textLine struct {
	words  []textWord
	height float64
}

// wrapRuns breaks runs into lines no wider than width. Newlines inside a run
// force a break; a style change within a line keeps the line going.
func wrapRuns(runs []layout.TextRun, width float64, measure measureFunc) []textLine {
	var lines []textLine
	cur := textLine{}
	x := 0.0

	flush := func(fallback float64) {
		if cur.height == 0 {
			cur.height = fallback
		}
		lines = append(lines, cur)
		cur = textLine{}
		x = 0
	}

	for _, run := range runs {
		lh := run.Size / pointsPerInch * lineSpacing
		space := measure(" ", run)
		for i, para := range strings.Split(run.Text, "\n") {
			if i > 0 {
				flush(lh)
			}
			for _, w := range strings.Fields(para) {
				ww := measure(w, run)
				if x > 0 && x+space+ww > width {
					flush(lh)
				}
				if x > 0 {
					x += space
				}
				cur.words = append(cur.words, textWord{text: w, run: run, x: x})
				if lh > cur.height {
					cur.height = lh
				}
				x += ww
			}
		}
	}
	if len(cur.words) > 0 {
		flush(0)
	}
	return lines
}

// visibleLines drops lines that would overflow maxH. The first line is always
// kept.
func visibleLines(lines []textLine, maxH float64) []textLine {
	y := 0.0
	for i, l := range lines {
		if i > 0 && y+l.height > maxH+1e-9 {
			return lines[:i]
		}
		y += l.height
	}
	return lines
}

// parseHex parses "RRGGBB" with an optional '#'. Invalid input is black.
func parseHex(s string) (r, g, b uint8) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

func hexColor(s string) color.RGBA {
	r, g, b := parseHex(s)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func cssColor(s string) string {
	if s == "" {
		return "#000000"
	}
	return "#" + strings.TrimPrefix(s, "#")
}
