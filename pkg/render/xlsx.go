package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/layout"
)

var placementHeader = []any{"Op", "Item", "Span", "Content", "X", "Y", "W", "H"}

// RenderXLSX writes a placement report: a Summary sheet followed by one
// sheet per slide listing every instruction with its rectangle in inches.
func RenderXLSX(seq *layout.Sequence) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, xlsxError(err)
	}

	summary := "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), summary); err != nil {
		return nil, xlsxError(err)
	}
	c := seq.Canvas
	rows := [][]any{
		{"Slides", seq.Len()},
		{"Images", seq.Count(layout.OpImage)},
		{"Texts", seq.Count(layout.OpText)},
		{"Dropped options", seq.Dropped},
		{"Canvas", fmt.Sprintf("%.2f x %.2f in", c.Width, c.Height)},
		{"Grid", fmt.Sprintf("%d x %d", c.Rows, c.Cols)},
		{"Gaps", fmt.Sprintf("%.2f / %.2f in", c.GapX, c.GapY)},
	}
	if err := writeRows(f, summary, rows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summary, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return nil, xlsxError(err)
	}
	_ = f.SetColWidth(summary, "A", "A", 18)

	for _, slide := range seq.Slides {
		sheet := fmt.Sprintf("Slide %d", slide.Index)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, xlsxError(err)
		}
		rows := [][]any{placementHeader}
		for _, in := range slide.Instructions {
			rows = append(rows, []any{
				string(in.Op), in.Item, in.Span.String(), content(in),
				round3(in.Rect.X), round3(in.Rect.Y), round3(in.Rect.W), round3(in.Rect.H),
			})
		}
		if err := writeRows(f, sheet, rows); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, "A1", "H1", bold); err != nil {
			return nil, xlsxError(err)
		}
		_ = f.SetColWidth(sheet, "B", "B", 18)
		_ = f.SetColWidth(sheet, "D", "D", 40)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, xlsxError(err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return xlsxError(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return xlsxError(err)
		}
	}
	return nil
}

func content(in layout.Instruction) string {
	switch in.Op {
	case layout.OpImage:
		return in.Ref
	case layout.OpShape:
		if in.Style != nil {
			return in.Style.Label
		}
		return ""
	}
	return in.Text()
}

func round3(v float64) float64 { return float64(int64(v*1000+0.5)) / 1000 }

func xlsxError(err error) error {
	return errors.Wrap(errors.ErrCodeInternal, err, "write xlsx")
}
