package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/slidegrid/pkg/cache"
	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/grid"
	"github.com/matzehuels/slidegrid/pkg/imageprobe"
	"github.com/matzehuels/slidegrid/pkg/layout"
)

// sizeProber returns Size for every ref.
type sizeProber struct{ Size imageprobe.Size }

func (p *sizeProber) Dimensions(context.Context, string) (imageprobe.Size, error) {
	return p.Size, nil
}

// countingProber returns a fixed size for every ref and counts lookups.
type countingProber struct {
	calls atomic.Int32
	fail  string
}

func (p *countingProber) Dimensions(_ context.Context, ref string) (imageprobe.Size, error) {
	p.calls.Add(1)
	if ref == p.fail {
		return imageprobe.Size{}, errors.New(errors.ErrCodeImageRead, "cannot read %s", ref)
	}
	return imageprobe.Size{Width: 100, Height: 50}, nil
}

func testRunner(c cache.Cache) (*Runner, *countingProber) {
	p := &countingProber{}
	r := NewRunner(c, nil, nil, nil)
	r.Prober = p
	return r, p
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"pdf", false},
		{"svg", false},
		{"png", false},
		{"json", false},
		{"xlsx", false},
		{"pptx", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %q", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should pass: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v, want [%s]", opts.Formats, DefaultFormat)
	}
	if opts.Layout.Canvas != grid.DefaultCanvas() {
		t.Errorf("Canvas = %+v", opts.Layout.Canvas)
	}
	if opts.PrefetchLimit != DefaultPrefetchLimit || opts.Logger == nil || opts.Layout.Logger == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}
}

func TestOptionsValidation(t *testing.T) {
	opts := Options{Formats: []string{"doc"}}
	if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad format error = %v", err)
	}

	opts = Options{Layout: layout.Options{Canvas: grid.Canvas{Width: 1, GapX: 0.5}}}
	if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidCanvas) {
		t.Errorf("bad canvas error = %v", err)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{DPI: 150}
	if got := opts.ArtifactKeyOpts("pdf"); got.DPI != 0 {
		t.Errorf("pdf key should ignore DPI: %+v", got)
	}
	if got := opts.ArtifactKeyOpts("png"); got.DPI != 150 {
		t.Errorf("png key should include DPI: %+v", got)
	}
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload([]byte(`{"title":"T","items":[{"main_image":"a.png","title":"A"}]}`))
	if err != nil || len(p.Items) != 1 {
		t.Fatalf("ParsePayload() = %+v, %v", p, err)
	}

	if _, err := ParsePayload([]byte(`{`)); !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("malformed error = %v", err)
	}
	if _, err := ParsePayload([]byte(`{"items":[{"main_image":"../x.png"}]}`)); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("traversal error = %v", err)
	}
}

func TestPayloadHash(t *testing.T) {
	a, _ := ParsePayload([]byte(`{"title":"T","items":[]}`))
	b, _ := ParsePayload([]byte("{\n  \"items\": [],\n  \"title\": \"T\"\n}"))
	ha, _ := PayloadHash(a)
	hb, _ := PayloadHash(b)
	if ha != hb {
		t.Error("formatting should not change the hash")
	}
	b.Title = "U"
	if hc, _ := PayloadHash(b); hc == ha {
		t.Error("content change should change the hash")
	}
}

func TestExecute(t *testing.T) {
	r, prober := testRunner(cache.NewMemoryCache())
	payload := layout.Demo(layout.DemoOptions{Products: 17})
	opts := Options{Formats: []string{"json", "svg"}}

	res, err := r.Execute(context.Background(), payload, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Stats.Items != 17 || res.Stats.Slides < 2 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	if !bytes.HasPrefix(res.Artifacts["svg"], []byte("<?xml")) {
		t.Error("svg artifact missing")
	}
	seq, err := layout.UnmarshalSequence(res.Artifacts["json"])
	if err != nil || seq.Len() != res.Sequence.Len() {
		t.Errorf("json artifact = %v slides, %v", seq, err)
	}
	probes := prober.calls.Load()
	if probes == 0 {
		t.Fatal("prober never called")
	}

	again, err := r.Execute(context.Background(), payload, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.LayoutHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", again.CacheInfo)
	}
	if prober.calls.Load() <= probes {
		t.Error("sizes must be resolved again to key the cached layout")
	}
	if again.PayloadHash != res.PayloadHash {
		t.Error("payload hash changed between runs")
	}

	opts.Refresh = true
	fresh, err := r.Execute(context.Background(), payload, opts)
	if err != nil || fresh.CacheInfo.LayoutHit {
		t.Errorf("refresh run = %+v, %v", fresh.CacheInfo, err)
	}
}

func TestExecuteReplacedImage(t *testing.T) {
	tests := []struct {
		name          string
		before, after imageprobe.Size
		wantHit       bool
	}{
		{"unchanged", imageprobe.Size{Width: 200, Height: 100}, imageprobe.Size{Width: 200, Height: 100}, true},
		{"replaced", imageprobe.Size{Width: 200, Height: 100}, imageprobe.Size{Width: 100, Height: 400}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &sizeProber{Size: tt.before}
			r := NewRunner(cache.NewMemoryCache(), nil, nil, nil)
			r.Prober = p
			payload := &layout.Payload{Items: []layout.Product{{MainImage: "a.png", Title: "A"}}}
			ctx := context.Background()

			first, hit, err := r.LayoutWithCacheInfo(ctx, payload, Options{})
			if err != nil || hit {
				t.Fatalf("first layout hit=%v err=%v", hit, err)
			}
			p.Size = tt.after
			second, hit, err := r.LayoutWithCacheInfo(ctx, payload, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if hit != tt.wantHit {
				t.Errorf("second layout hit = %v, want %v", hit, tt.wantHit)
			}
			a, _ := layout.MarshalSequence(first)
			b, _ := layout.MarshalSequence(second)
			if changed := !bytes.Equal(a, b); changed == tt.wantHit {
				t.Errorf("layout changed = %v after sizes %s -> %s", changed, tt.before, tt.after)
			}
		})
	}
}

func TestSizesHash(t *testing.T) {
	a := layout.SizeTable{"a.png": {Width: 1, Height: 2}, "b.png": {Width: 3, Height: 4}}
	b := layout.SizeTable{"b.png": {Width: 3, Height: 4}, "a.png": {Width: 1, Height: 2}}
	c := layout.SizeTable{"a.png": {Width: 2, Height: 1}, "b.png": {Width: 3, Height: 4}}

	tests := []struct {
		name string
		x, y layout.SizeTable
		same bool
	}{
		{"same entries", a, b, true},
		{"swapped dimensions", a, c, false},
		{"empty", layout.SizeTable{}, nil, true},
		{"missing entry", a, layout.SizeTable{"a.png": {Width: 1, Height: 2}}, false},
	}
	for _, tt := range tests {
		if got := SizesHash(tt.x) == SizesHash(tt.y); got != tt.same {
			t.Errorf("%s: equal hashes = %v, want %v", tt.name, got, tt.same)
		}
	}
}

func TestExecuteImageError(t *testing.T) {
	r, prober := testRunner(nil)
	prober.fail = "broken.png"
	payload := &layout.Payload{Items: []layout.Product{
		{MainImage: "ok.png", Title: "A"},
		{MainImage: "broken.png", Title: "B"},
	}}
	_, err := r.Execute(context.Background(), payload, Options{Formats: []string{"json"}})
	if !errors.Is(err, errors.ErrCodeImageRead) {
		t.Errorf("error = %v, want IMAGE_READ", err)
	}
	if !strings.Contains(err.Error(), "broken.png") {
		t.Errorf("error %q should name the image", err)
	}
}

func TestExecuteInvalid(t *testing.T) {
	r, _ := testRunner(nil)
	if _, err := r.Execute(context.Background(), nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("nil payload error = %v", err)
	}
	_, err := r.Execute(context.Background(), &layout.Payload{}, Options{Formats: []string{"gif"}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("format error = %v", err)
	}
}

func TestRenderDeduplicatesFormats(t *testing.T) {
	seq := &layout.Sequence{Canvas: grid.DefaultCanvas(), Slides: []layout.Slide{{Index: 1}}}
	artifacts, err := Render(context.Background(), seq, nil, Options{Formats: []string{"json", "json"}})
	if err != nil || len(artifacts) != 1 {
		t.Errorf("Render() = %d artifacts, %v", len(artifacts), err)
	}
}
