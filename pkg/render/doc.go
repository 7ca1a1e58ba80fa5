// Package render encodes a computed [layout.Sequence] as a document.
//
// # Formats
//
//   - PDF: one page per slide, page size equal to the canvas ([RenderPDF])
//   - SVG: all slides stacked vertically, images embedded as data URIs ([RenderSVG])
//   - PNG: raster preview of the SVG arrangement ([RenderPNG])
//   - JSON: the raw instruction sequence ([RenderJSON])
//   - XLSX: a placement report, one sheet per slide ([RenderXLSX])
//
// [Render] dispatches on a [Format]:
//
//	data, err := render.Render(ctx, seq, render.FormatPDF,
//	    render.WithSource(imageprobe.NewRouter(uploads, client)),
//	)
//
// Shapes (the debug grid overlay) are always drawn before images and text on
// the same slide. Without [WithSource], images are drawn as grey placeholders
// labelled with their reference, which is enough for previews and tests.
//
// # Units
//
// Sequences are laid out in canvas inches. PDF keeps inches; SVG and PNG
// scale by [WithDPI] (default [DefaultDPI]). Text sizes are points.
//
// [layout.Sequence]: github.com/matzehuels/slidegrid/pkg/layout.Sequence
package render
