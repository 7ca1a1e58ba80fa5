package server

import (
	"io"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/slidegrid/pkg/buildinfo"
	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/observability"
	"github.com/matzehuels/slidegrid/pkg/pipeline"
	"github.com/matzehuels/slidegrid/pkg/render"
	"github.com/matzehuels/slidegrid/pkg/store"
)

// Response headers describing a generated document.
const (
	GenerationIDHeader = "X-Generation-Id"
	SlidesHeader       = "X-Slides"
	DroppedHeader      = "X-Dropped-Options"
)

// maxDemoProducts bounds the demo size accepted from query strings.
const maxDemoProducts = 500

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// =============================================================================
// Generation
// =============================================================================

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Server.MaxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBody)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidPayload, err, "read request body"))
		return
	}
	payload, err := pipeline.ParsePayload(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, format, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.generate(w, r, payload, opts, format, filename(payload.Title, "slides"))
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := intParam(q.Get("products"), 0, maxDemoProducts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	seed, err := intParam(q.Get("seed"), 0, -1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payload := layout.Demo(layout.DemoOptions{
		Products: products,
		Seed:     uint64(seed),
		Image:    q.Get("image"),
	})
	if err := pipeline.ValidatePayload(payload); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, format, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.generate(w, r, payload, opts, format, "demo")
}

// options builds pipeline options from the server config and the query
// string (format, debug, refresh, dpi).
func (s *Server) options(r *http.Request) (pipeline.Options, render.Format, error) {
	q := r.URL.Query()
	name := q.Get("format")
	if name == "" {
		name = pipeline.DefaultFormat
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return pipeline.Options{}, "", err
	}

	opts := pipeline.Options{
		Layout:        s.cfg.LayoutOptions(),
		PrefetchLimit: s.cfg.Layout.PrefetchLimit,
		Formats:       []string{string(format)},
		Logger:        s.logger,
	}
	if v := q.Get("debug"); v != "" {
		opts.Layout.Debug, err = strconv.ParseBool(v)
		if err != nil {
			return opts, "", errors.New(errors.ErrCodeInvalidInput, "debug: %q is not a boolean", v)
		}
	}
	if v := q.Get("refresh"); v != "" {
		opts.Refresh, err = strconv.ParseBool(v)
		if err != nil {
			return opts, "", errors.New(errors.ErrCodeInvalidInput, "refresh: %q is not a boolean", v)
		}
	}
	if v := q.Get("dpi"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil || dpi <= 0 || dpi > 600 {
			return opts, "", errors.New(errors.ErrCodeInvalidInput, "dpi: %q must be in (0, 600]", v)
		}
		opts.DPI = dpi
	}
	return opts, format, nil
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, payload *layout.Payload, opts pipeline.Options, format render.Format, name string) {
	res, err := s.runner.Execute(r.Context(), payload, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	if s.store != nil {
		rec := store.NewRecord(res, payload.Title, s.cfg.Store.TTL)
		err := s.store.Put(r.Context(), rec)
		observability.Store().OnRecordSaved(r.Context(), rec.ID, rec.Slides, err)
		if err != nil {
			s.logger.Warn("save generation", "err", err)
		} else {
			h.Set(GenerationIDHeader, rec.ID)
		}
	}

	s.logger.Info("generated",
		"format", format,
		"items", res.Stats.Items,
		"slides", res.Stats.Slides,
		"dropped", res.Stats.Dropped,
		"layout", res.Stats.LayoutTime,
		"render", res.Stats.RenderTime)

	body := res.Artifacts[string(format)]
	h.Set("Content-Type", format.ContentType())
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": name + format.Extension(),
	}))
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set(SlidesHeader, strconv.Itoa(res.Stats.Slides))
	h.Set(DroppedHeader, strconv.Itoa(res.Stats.Dropped))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("write document", "err", err)
	}
}

// =============================================================================
// History
// =============================================================================

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "generation history is disabled"))
		return
	}
	limit, err := intParam(r.URL.Query().Get("limit"), 0, 500)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	s.writeData(w, recs)
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "generation history is disabled"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, rec)
}

// =============================================================================
// Misc
// =============================================================================

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeData(w, buildinfo.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeData(w, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "Can't find %s on this server!", r.URL.Path))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Status:     "error",
		StatusCode: http.StatusMethodNotAllowed,
		Message:    r.Method + " is not allowed on " + r.URL.Path,
	})
}

// =============================================================================
// Helpers
// =============================================================================

// intParam parses a non-negative integer query value. An empty value yields
// def; limit < 0 means unbounded.
func intParam(v string, def, limit int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || (limit >= 0 && n > limit) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%q is not a valid count", v)
	}
	return n, nil
}

// foldAccents returns a transformer that strips combining marks, so
// "Sản phẩm" becomes "San pham". A chain holds buffers and must not be shared
// between goroutines.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// filename derives an ASCII download name from a title.
func filename(title, fallback string) string {
	folded, _, err := transform.String(foldAccents(), strings.TrimSpace(title))
	if err != nil {
		folded = title
	}
	name := strings.Trim(unsafeFilename.ReplaceAllString(folded, "-"), "-.")
	if name == "" {
		return fallback
	}
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}
