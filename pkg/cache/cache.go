// Package cache provides the byte-oriented caches used by the pipeline and the
// HTTP server.
//
// Three backends implement [Cache]:
//   - [FileCache] stores entries as JSON files (CLI default)
//   - [RedisCache] shares entries between server instances
//   - [MemoryCache] keeps entries in process (tests, single-node servers)
//
// [NullCache] disables caching. Cache keys are produced by a [Keyer] so that
// every entry point computes identical keys for identical inputs.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry type.
const (
	// TTLImage covers probed image dimensions. Images behind a reference
	// rarely change.
	TTLImage = 7 * 24 * time.Hour

	// TTLLayout covers computed slide sequences.
	TTLLayout = 24 * time.Hour

	// TTLArtifact covers rendered documents.
	TTLArtifact = 24 * time.Hour

	// TTLHTTP covers raw downloads fetched by the HTTP image source.
	TTLHTTP = time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey keys a downloaded resource.
	HTTPKey(namespace, key string) string

	// ImageKey keys the dimensions of an image reference.
	ImageKey(ref string) string

	// LayoutKey keys a slide sequence computed from a payload.
	LayoutKey(payloadHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered document.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists the options that change a layout.
type LayoutKeyOpts struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapX      float64 `json:"gap_x"`
	GapY      float64 `json:"gap_y"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	CoverRows int     `json:"cover_rows"`
	CoverCols int     `json:"cover_cols"`
	SubRows   int     `json:"sub_rows"`
	SubCols   int     `json:"sub_cols"`
	SubGap    float64 `json:"sub_gap"`
	LabelBand float64 `json:"label_band"`
	Debug     bool    `json:"debug"`
}

// ArtifactKeyOpts lists the options that change a rendered document.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	DPI    float64 `json:"dpi,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

func (DefaultKeyer) ImageKey(ref string) string {
	return hashKey("image", ref)
}

func (DefaultKeyer) LayoutKey(payloadHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", payloadHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
