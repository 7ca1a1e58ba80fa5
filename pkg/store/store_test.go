package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/grid"
	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/pipeline"
)

func testResult() *pipeline.Result {
	return &pipeline.Result{
		PayloadHash: "abc123",
		Formats:     []string{"pdf"},
		Sequence: &layout.Sequence{
			Canvas: grid.DefaultCanvas(),
			Slides: []layout.Slide{{Index: 1}, {Index: 2}},
		},
		Stats: pipeline.Stats{Items: 3, Slides: 2, Dropped: 1},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestNewRecord(t *testing.T) {
	r := NewRecord(testResult(), "Spring", 0)
	if err := ValidateID(r.ID); err != nil {
		t.Errorf("ID %q is not a UUID", r.ID)
	}
	if r.Slides != 2 || r.Items != 3 || r.Dropped != 1 || r.Title != "Spring" {
		t.Errorf("record = %+v", r)
	}
	if got := r.ExpiresAt.Sub(r.CreatedAt); got != DefaultTTL {
		t.Errorf("ttl = %v, want %v", got, DefaultTTL)
	}
	if r.IsExpired() {
		t.Error("new record should not be expired")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			r := NewRecord(testResult(), "Spring", time.Hour)
			if err := s.Put(ctx, r); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			got, err := s.Get(ctx, r.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.PayloadHash != r.PayloadHash || got.Sequence == nil || got.Sequence.Len() != 2 {
				t.Errorf("Get() = %+v", got)
			}

			if err := s.Delete(ctx, r.ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := s.Get(ctx, r.ID); !errors.Is(err, errors.ErrCodeNotFound) {
				t.Errorf("Get() after delete error = %v, want NOT_FOUND", err)
			}
			if err := s.Delete(ctx, r.ID); err != nil {
				t.Errorf("second Delete() error = %v", err)
			}
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			live := NewRecord(testResult(), "live", time.Hour)
			dead := NewRecord(testResult(), "dead", time.Hour)
			dead.ExpiresAt = time.Now().Add(-time.Minute)
			for _, r := range []*Record{live, dead} {
				if err := s.Put(ctx, r); err != nil {
					t.Fatal(err)
				}
			}

			if _, err := s.Get(ctx, dead.ID); !errors.Is(err, errors.ErrCodeNotFound) {
				t.Errorf("expired Get() error = %v", err)
			}
			list, err := s.List(ctx, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 1 || list[0].ID != live.ID {
				t.Errorf("List() = %d records, want only the live one", len(list))
			}

			if err := s.Cleanup(ctx); err != nil {
				t.Fatalf("Cleanup() error = %v", err)
			}
			if _, err := s.Get(ctx, live.ID); err != nil {
				t.Errorf("Cleanup removed a live record: %v", err)
			}
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Now().UTC()
			var ids []string
			for i := range 3 {
				r := NewRecord(testResult(), "", time.Hour)
				r.CreatedAt = base.Add(time.Duration(i) * time.Second)
				ids = append(ids, r.ID)
				if err := s.Put(ctx, r); err != nil {
					t.Fatal(err)
				}
			}

			list, err := s.List(ctx, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 2 {
				t.Fatalf("List(2) = %d records", len(list))
			}
			if list[0].ID != ids[2] || list[1].ID != ids[1] {
				t.Error("List() should return newest first")
			}
			if list[0].Sequence != nil {
				t.Error("List() should omit sequences")
			}
		})
	}
}

func TestFileStoreRejectsBadID(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "../../etc/passwd"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Get() error = %v, want INVALID_INPUT", err)
	}
}

func TestFileStoreSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	r := NewRecord(testResult(), "", time.Hour)
	if err := s.Put(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	list, err := s.List(context.Background(), 0)
	if err != nil || len(list) != 1 {
		t.Errorf("List() = %d, %v", len(list), err)
	}
	if s.Path() != dir {
		t.Errorf("Path() = %q, want %q", s.Path(), dir)
	}
}
