// Package store keeps a history of generation runs.
//
// Each successful pipeline run can be saved as a [Record]: the payload hash,
// the resulting slide sequence, counts and timings. Three backends implement
// [Store]:
//   - [MemoryStore]: in-process storage for development and tests
//   - [FileStore]: JSON files in a config directory, used by the CLI
//   - [MongoStore]: a MongoDB collection shared between server instances
//
// Records expire after [DefaultTTL] unless saved with a different expiry.
//
// # Usage
//
//	rec := store.NewRecord(result, payload.Title, store.DefaultTTL)
//	if err := st.Put(ctx, rec); err != nil {
//	    return err
//	}
//	rec, err := st.Get(ctx, rec.ID)
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/pipeline"
)

// DefaultTTL is how long a record is kept.
const DefaultTTL = 7 * 24 * time.Hour

// DefaultListLimit bounds [Store.List] when no limit is given.
const DefaultListLimit = 50

// Record describes one generation run.
type Record struct {
	ID          string           `json:"id" bson:"_id"`
	PayloadHash string           `json:"payload_hash" bson:"payload_hash"`
	Title       string           `json:"title,omitempty" bson:"title,omitempty"`
	Formats     []string         `json:"formats" bson:"formats"`
	Items       int              `json:"items" bson:"items"`
	Slides      int              `json:"slides" bson:"slides"`
	Dropped     int              `json:"dropped" bson:"dropped"`
	LayoutTime  time.Duration    `json:"layout_time" bson:"layout_time"`
	RenderTime  time.Duration    `json:"render_time" bson:"render_time"`
	Sequence    *layout.Sequence `json:"sequence,omitempty" bson:"sequence,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at" bson:"expires_at"`
}

// NewRecord creates a record for a pipeline result with a fresh UUID that
// expires after ttl.
func NewRecord(res *pipeline.Result, title string, ttl time.Duration) *Record {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return &Record{
		ID:          uuid.NewString(),
		PayloadHash: res.PayloadHash,
		Title:       title,
		Formats:     res.Formats,
		Items:       res.Stats.Items,
		Slides:      res.Stats.Slides,
		Dropped:     res.Stats.Dropped,
		LayoutTime:  res.Stats.LayoutTime,
		RenderTime:  res.Stats.RenderTime,
		Sequence:    res.Sequence,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// IsExpired reports whether the record has passed its expiry.
func (r *Record) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// Store is the interface for record storage backends.
type Store interface {
	// Get retrieves a record by ID. A missing or expired record fails with
	// NOT_FOUND.
	Get(ctx context.Context, id string) (*Record, error)

	// Put stores a record, replacing any record with the same ID.
	Put(ctx context.Context, r *Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns up to limit unexpired records, newest first, without
	// their sequences.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Cleanup removes expired records.
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// ValidateID rejects IDs that are not UUIDs, so they can be used as file
// names and query keys.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid generation id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "generation %s not found", id)
}

// summary strips the sequence from a record for listings.
func summary(r *Record) *Record {
	cp := *r
	cp.Sequence = nil
	return &cp
}
