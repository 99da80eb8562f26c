package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SummittDweller/cb-file-finder/internal/candidates"
	"github.com/SummittDweller/cb-file-finder/internal/events"
	"github.com/SummittDweller/cb-file-finder/internal/policy"
	"github.com/SummittDweller/cb-file-finder/internal/results"
	"github.com/SummittDweller/cb-file-finder/internal/routing"
	"github.com/SummittDweller/cb-file-finder/internal/scope"
)

func buildPool(t *testing.T, files ...string) *candidates.Pool {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	pool, err := candidates.Build(root)
	if err != nil {
		t.Fatalf("Failed to build pool: %v", err)
	}
	return pool
}

type rowCollector struct {
	rows []results.Row
	err  error
}

func (c *rowCollector) Append(r results.Row) error {
	if c.err != nil {
		return c.err
	}
	c.rows = append(c.rows, r)
	return nil
}

func TestRun_EndToEnd(t *testing.T) {
	pool := buildPool(t,
		"a/accession-001_OBJ.tif",
		"a/accession-002_OBJ.tif",
		"a/.hidden/accession-001_OBJ.tif",
	)
	rec := &events.Recorder{}
	writer := &rowCollector{}

	d := New(Options{SkipRows: 1}, rec, writer)
	table, err := d.Run(context.Background(), []string{"skip-header", "accession-001_OBJ.tif", ""}, pool)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if table.Len() != 1 {
		t.Fatalf("Expected 1 row, got %d", table.Len())
	}
	row := table.Rows[0]
	if row.Index != 1 {
		t.Errorf("Expected row index 1, got %d", row.Index)
	}
	best, ok := row.Best()
	if !ok || best.Score != 100 || best.Name != "accession-001_OBJ.tif" {
		t.Fatalf("Unexpected best match %+v", best)
	}
	if filepath.Base(best.Path) != "a" {
		t.Errorf("Unexpected best path %s", best.Path)
	}

	route, err := routing.NewRouter("").Route(row.Target, best.Name, best.Score, policy.ModeObject)
	if err != nil {
		t.Fatalf("Unexpected routing error: %v", err)
	}
	if route.URL != "https://dgobjects.blob.core.windows.net/objs/accession-001_OBJ.tif" {
		t.Errorf("Unexpected URL %s", route.URL)
	}

	if len(writer.rows) != 1 {
		t.Errorf("Expected writer to see 1 row, got %d", len(writer.rows))
	}
	// two skips, plus the exact match reported at 95 because the catalog numbers agree
	if rec.Count(events.SeverityWarning) != 3 {
		t.Errorf("Expected 3 warnings, got %d", rec.Count(events.SeverityWarning))
	}
	if rec.Count(events.SeveritySuccess) != 0 {
		t.Errorf("Expected no success, got %d", rec.Count(events.SeveritySuccess))
	}
	if done, total := rec.LastProgress(); done != 3 || total != 3 {
		t.Errorf("Expected progress 3/3, got %d/%d", done, total)
	}
}

func TestRun_ScopeRetainsAllMatches(t *testing.T) {
	pool := buildPool(t,
		"a/accession-001_OBJ.tif",
		"a/accession-002_OBJ.tif",
		"b/accession-001_TN.jpg",
	)
	pattern, err := scope.CompilePattern(`accession-(\d+)`)
	if err != nil {
		t.Fatal(err)
	}

	d := New(Options{Pattern: pattern}, nil, nil)
	table, err := d.Run(context.Background(), []string{"accession-001_OBJ.tif"}, pool)
	if err != nil {
		t.Fatal(err)
	}

	row := table.Rows[0]
	if row.Pattern != `accession-(\d+)` {
		t.Errorf("Expected pattern recorded, got %q", row.Pattern)
	}
	if len(row.Matches) != 2 {
		t.Fatalf("Expected 2 scoped matches, got %+v", row.Matches)
	}
	for _, m := range row.Matches {
		if !strings.HasPrefix(m.Name, "accession-001") {
			t.Errorf("Out of scope match %s", m.Name)
		}
	}
}

func TestRun_OnlyEmptyTargetsSkipped(t *testing.T) {
	pool := buildPool(t, "item_OBJ.tif")
	rec := &events.Recorder{}

	table, err := New(Options{}, rec, nil).Run(context.Background(), []string{"", "  ", "item_OBJ.tif"}, pool)
	if err != nil {
		t.Fatal(err)
	}

	if table.Len() != 2 {
		t.Fatalf("Expected whitespace target to be kept, got %d rows", table.Len())
	}
	if table.Rows[0].Index != 1 || table.Rows[0].Target != "  " {
		t.Errorf("Unexpected first row %+v", table.Rows[0])
	}
	if rec.Count(events.SeveritySuccess) != 1 {
		t.Errorf("Expected exact match reported as success, got %d", rec.Count(events.SeveritySuccess))
	}
}

func TestRun_NoMatchInScope(t *testing.T) {
	pool := buildPool(t, "accession-002_OBJ.tif")
	pattern, _ := scope.CompilePattern(`accession-(\d+)`)
	rec := &events.Recorder{}

	table, err := New(Options{Pattern: pattern}, rec, nil).Run(context.Background(), []string{"accession-001_OBJ.tif"}, pool)
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 1 || len(table.Rows[0].Matches) != 0 {
		t.Fatalf("Expected one row without matches, got %+v", table.Rows)
	}
	if rec.Count(events.SeverityError) != 1 {
		t.Errorf("Expected a no-match error event")
	}
}

func TestRun_TieBreakReported(t *testing.T) {
	pool := buildPool(t, "map-17_OBJ.tiff")
	rec := &events.Recorder{}

	table, err := New(Options{}, rec, nil).Run(context.Background(), []string{"map-17_OBJ.tif"}, pool)
	if err != nil {
		t.Fatal(err)
	}

	best, _ := table.Rows[0].Best()
	if best.Score == policy.TieBreakScore {
		t.Fatalf("Row should keep the raw score, got %d", best.Score)
	}
	evs := rec.Events()
	if len(evs) != 1 || evs[0].Severity != events.SeverityWarning || !strings.Contains(evs[0].Message, "95") {
		t.Errorf("Expected warning with tie-break score, got %+v", evs)
	}
}

func TestRun_Transcripts(t *testing.T) {
	pool := buildPool(t, "t/interview.vtt", "o/other.tif")

	tests := []struct {
		name    string
		enabled bool
		want    string
	}{
		{name: "enabled", enabled: true, want: "interview.vtt"},
		{name: "disabled", enabled: false, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(Options{Transcripts: tt.enabled}, nil, nil)
			table, err := d.Run(context.Background(), []string{"interview"}, pool)
			if err != nil {
				t.Fatal(err)
			}
			if got := table.Rows[0].Transcript; got != tt.want {
				t.Errorf("Expected transcript %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIsTranscript(t *testing.T) {
	tests := map[string]bool{
		"a.csv":     true,
		"a.VTT":     true,
		"a.Pdf":     true,
		"a.xml":     true,
		"a.tif":     false,
		"a.csv.bak": false,
		"csv":       false,
	}
	for name, want := range tests {
		if got := IsTranscript(name); got != want {
			t.Errorf("IsTranscript(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	pool := buildPool(t, "x_OBJ.tif")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := New(Options{}, nil, nil).Run(ctx, []string{"x_OBJ.tif"}, pool)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Expected no rows, got %d", table.Len())
	}
}

func TestRun_WriterFailure(t *testing.T) {
	pool := buildPool(t, "x_OBJ.tif")
	boom := errors.New("disk full")

	_, err := New(Options{}, nil, &rowCollector{err: boom}).Run(context.Background(), []string{"x_OBJ.tif"}, pool)
	if !errors.Is(err, boom) {
		t.Errorf("Expected writer error, got %v", err)
	}
}
