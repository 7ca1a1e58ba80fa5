package imageprobe

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slidegrid/pkg/cache"
	"github.com/matzehuels/slidegrid/pkg/errors"
)

// Prober reads image dimensions from a [Source], caching results under
// [cache.Keyer.ImageKey]. When the source is a [Versioner] the version is
// part of the key, so replaced files are read again.
type Prober struct {
	Source Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewProber returns a Prober with the default keyer and [cache.TTLImage].
// Nil cache and logger are replaced with no-op values.
func NewProber(src Source, c cache.Cache, logger *log.Logger) *Prober {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Prober{
		Source: src,
		Cache:  c,
		Keyer:  cache.NewDefaultKeyer(),
		TTL:    cache.TTLImage,
		Logger: logger,
	}
}

// Dimensions returns the pixel size of ref. Every failure carries the
// IMAGE_READ code; the underlying cause is kept in the chain.
func (p *Prober) Dimensions(ctx context.Context, ref string) (Size, error) {
	key, cacheable := p.imageKey(ctx, ref)
	if cacheable {
		if data, hit, err := p.Cache.Get(ctx, key); err == nil && hit {
			var s Size
			if json.Unmarshal(data, &s) == nil && s.Known() {
				return s, nil
			}
		}
	}

	rc, err := p.Source.Open(ctx, ref)
	if err != nil {
		return Size{}, errors.Wrap(errors.ErrCodeImageRead, err, "open %s", ref)
	}
	defer rc.Close()

	s, format, err := DecodeConfig(rc)
	if err != nil {
		return Size{}, errors.Wrap(errors.ErrCodeImageRead, err, "%s", ref)
	}
	if !s.Known() {
		return Size{}, errors.New(errors.ErrCodeImageRead, "%s: empty image %s", ref, s)
	}
	p.Logger.Debug("probed image", "ref", ref, "format", format, "size", s.String())

	if data, err := json.Marshal(s); err == nil && cacheable {
		_ = p.Cache.Set(ctx, key, data, p.TTL)
	}
	return s, nil
}

// imageKey keys ref and, when the source is a [Versioner], its version. A
// failed version lookup disables caching and leaves Open to report the error.
func (p *Prober) imageKey(ctx context.Context, ref string) (string, bool) {
	v, ok := p.Source.(Versioner)
	if !ok {
		return p.Keyer.ImageKey(ref), true
	}
	version, err := v.Version(ctx, ref)
	if err != nil {
		return "", false
	}
	if version == "" {
		return p.Keyer.ImageKey(ref), true
	}
	return p.Keyer.ImageKey(ref + "@" + version), true
}
