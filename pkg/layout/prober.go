package layout

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/imageprobe"
)

// DefaultPrefetchLimit bounds concurrent dimension lookups in [Prefetch].
const DefaultPrefetchLimit = 8

// Prober resolves the pixel size of an image reference. Failures carry the
// IMAGE_READ code.
type Prober interface {
	Dimensions(ctx context.Context, ref string) (imageprobe.Size, error)
}

// SizeTable is a precomputed set of image sizes. It implements [Prober]; a
// reference missing from the table fails with IMAGE_READ.
type SizeTable map[string]imageprobe.Size

// Dimensions returns the stored size for ref.
func (t SizeTable) Dimensions(_ context.Context, ref string) (imageprobe.Size, error) {
	s, ok := t[ref]
	if !ok {
		return imageprobe.Size{}, errors.New(errors.ErrCodeImageRead, "no dimensions for %q", ref)
	}
	return s, nil
}

// Prefetch resolves refs with at most limit concurrent lookups. The first
// failure cancels the remaining lookups and is returned. A non-positive limit
// uses [DefaultPrefetchLimit].
func Prefetch(ctx context.Context, p Prober, refs []string, limit int) (SizeTable, error) {
	if limit <= 0 {
		limit = DefaultPrefetchLimit
	}
	sizes := make([]imageprobe.Size, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ref := range refs {
		g.Go(func() error {
			s, err := p.Dimensions(gctx, ref)
			if err != nil {
				return err
			}
			sizes[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := make(SizeTable, len(refs))
	for i, ref := range refs {
		table[ref] = sizes[i]
	}
	return table, nil
}
