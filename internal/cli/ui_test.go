package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/slidegrid/pkg/store"
)

// captureOutput redirects command output for the rest of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() { out = prev })
	return &buf
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name    string
		dropped int
		cached  bool
		want    []string
		absent  []string
	}{
		{"fresh", 0, false, []string{"4 products", "2 slides", iconFresh}, []string{"dropped", iconCached}},
		{"cached with drops", 3, true, []string{"3 options dropped", iconCached}, []string{iconFresh}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t)
			printStats(4, 2, tt.dropped, tt.cached)
			got := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("missing %q in %q", w, got)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("unexpected %q in %q", a, got)
				}
			}
		})
	}
}

func TestStatusLines(t *testing.T) {
	buf := captureOutput(t)
	printSuccess("Generated %d slides", 3)
	printKeyValue("Slides", "3")
	printNextStep("Preview", "slidegrid preview x.json")

	got := buf.String()
	for _, w := range []string{"✓ Generated 3 slides", "Slides", "slidegrid preview x.json"} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q in %q", w, got)
		}
	}
	if n := strings.Count(got, "\n"); n != 3 {
		t.Errorf("lines = %d, want 3", n)
	}
}

func TestHistoryTable(t *testing.T) {
	recs := []*store.Record{
		{ID: "abcdef12-0000-4000-8000-000000000001", Title: "Spring", Items: 4, Slides: 2, Formats: []string{"pdf", "svg"}, CreatedAt: time.Now()},
		{ID: "12345678-0000-4000-8000-000000000002", Items: 1, Slides: 1, Dropped: 2, Formats: []string{"png"}, CreatedAt: time.Now()},
	}
	got := historyTable(recs)
	for _, w := range []string{"abcdef12", "12345678", "Spring", "pdf,svg", "Dropped"} {
		if !strings.Contains(got, w) {
			t.Errorf("table missing %q:\n%s", w, got)
		}
	}
	if strings.Contains(got, "0000-4000") {
		t.Error("ids not shortened")
	}
}
