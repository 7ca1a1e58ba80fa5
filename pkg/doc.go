// Package pkg provides the core libraries for Slidegrid catalogue layout.
//
// # Overview
//
// Slidegrid places a cover and a list of products onto a grid of slides and
// draws the result as a document. The pkg directory is organized into three
// main areas:
//
//  1. Domain logic ([grid], [layout], [render])
//  2. Infrastructure ([cache], [store], [httputil], [imageprobe], [observability])
//  3. Orchestration ([pipeline])
//
// # Architecture
//
// The typical data flow through Slidegrid:
//
//	JSON payload
//	     ↓
//	[pipeline] ParsePayload (decode + validate)
//	     ↓
//	[imageprobe] (image sizes, cached)
//	     ↓
//	[layout] Orchestrator on a [grid] per slide
//	     ↓
//	layout.Sequence (positioned instructions)
//	     ↓
//	[render] PDF/SVG/PNG/JSON/XLSX
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/slidegrid/pkg/cache"
//	    "github.com/matzehuels/slidegrid/pkg/imageprobe"
//	    "github.com/matzehuels/slidegrid/pkg/pipeline"
//	)
//
//	payload, _ := pipeline.ParsePayload(data)
//	src := imageprobe.NewRouter("images", nil)
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, nil, src)
//	res, _ := runner.Execute(ctx, payload, pipeline.Options{Formats: []string{"pdf"}})
//	os.WriteFile("deck.pdf", res.Artifacts["pdf"], 0o644)
//
// # Main Packages
//
// [grid] - Canvas geometry and slot bookkeeping. A [grid.Grid] tracks which
// cells of one slide are taken; [grid.FindFreeSpot] scans it row-major.
//
// [layout] - The placement engine. The orchestrator walks the payload, asks
// the grid for room, and records drawing instructions through a Builder.
// Items that do not fit start a new slide.
//
// [render] - Output formats for a computed sequence. Rendering only draws;
// all positions come from the layout.
//
// [pipeline] - Complete pipeline (parse → probe → layout → render) used by
// the CLI and the HTTP server, with content-addressed caching of layouts and
// documents.
//
// [imageprobe] - Image sources (local folder, remote http) and size probing.
//
// [cache] - Cache backends (null, memory, file, Redis) and key derivation.
//
// [store] - Generation records (memory, file, MongoDB).
//
// [errors] - Coded errors with user-facing messages and HTTP statuses.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/layout/...    # Specific package
//	go test -run Example        # Examples only
//
// [grid]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/grid
// [grid.Grid]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/grid#Grid
// [grid.FindFreeSpot]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/grid#FindFreeSpot
// [layout]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/pipeline
// [imageprobe]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/imageprobe
// [cache]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/store
// [httputil]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/slidegrid/pkg/errors
package pkg
