package scope

import (
	"testing"

	"github.com/SummittDweller/cb-file-finder/internal/candidates"
)

func testPool(t *testing.T) *candidates.Pool {
	t.Helper()
	pool, err := candidates.NewPool(
		[]string{"grinnell_100_OBJ.tif", "grinnell_200_OBJ.tif", "grinnell_100_TN.jpg", "readme.txt"},
		[]string{"/a", "/b", "/c", "/d"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return pool
}

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
		wantErr bool
	}{
		{name: "empty disables narrowing", raw: "", wantNil: true},
		{name: "whitespace disables narrowing", raw: "  ", wantNil: true},
		{name: "raw regex", raw: `grinnell_\d+`},
		{name: "regex with group", raw: `grinnell_(\d+)`},
		{name: "invalid regex", raw: `grinnell_[`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompilePattern(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if (p == nil) != tt.wantNil {
				t.Errorf("Expected nil=%v, got %v", tt.wantNil, p)
			}
		})
	}
}

func TestPatternExtract(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		input  string
		want   string
		wantOK bool
	}{
		{name: "implicit group", raw: `grinnell_\d+`, input: "grinnell_100_OBJ.tif", want: "grinnell_100", wantOK: true},
		{name: "explicit group", raw: `grinnell_(\d+)`, input: "grinnell_100_OBJ.tif", want: "100", wantOK: true},
		{name: "non capturing group", raw: `(?:grinnell)_\d+`, input: "grinnell_7", want: "grinnell_7", wantOK: true},
		{name: "no match", raw: `grinnell_\d+`, input: "readme.txt", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompilePattern(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			got, ok := p.Extract(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNarrow_NoPatternIsIdentity(t *testing.T) {
	pool := testPool(t)

	s := Narrow(nil, "grinnell_100_OBJ.tif", pool)

	if s.Matched {
		t.Error("Expected no significant match without a pattern")
	}
	if s.Len() != pool.Len() {
		t.Fatalf("Expected %d candidates, got %d", pool.Len(), s.Len())
	}
	for i := range pool.Filenames {
		if s.Filenames[i] != pool.Filenames[i] || s.Directories[i] != pool.Directories[i] {
			t.Errorf("Candidate %d changed", i)
		}
		if s.Index[i] != i {
			t.Errorf("Expected identity index at %d, got %d", i, s.Index[i])
		}
	}
}

func TestNarrow_TargetWithoutSubstringUsesFullPool(t *testing.T) {
	pool := testPool(t)
	p, _ := CompilePattern(`grinnell_\d+`)

	s := Narrow(p, "unrelated.pdf", pool)

	if s.Matched {
		t.Error("Expected no significant match")
	}
	if s.Len() != pool.Len() {
		t.Errorf("Expected full pool, got %d", s.Len())
	}
}

func TestNarrow_RetainsEveryMatchingCandidate(t *testing.T) {
	pool := testPool(t)
	p, _ := CompilePattern(`grinnell_\d+`)

	s := Narrow(p, "grinnell_100", pool)

	if !s.Matched || s.Substring != "grinnell_100" {
		t.Fatalf("Unexpected substring %q (matched=%v)", s.Substring, s.Matched)
	}
	want := []string{"grinnell_100_OBJ.tif", "grinnell_100_TN.jpg"}
	if s.Len() != len(want) {
		t.Fatalf("Expected %v, got %v", want, s.Filenames)
	}
	for i, name := range want {
		if s.Filenames[i] != name {
			t.Errorf("Expected %s at %d, got %s", name, i, s.Filenames[i])
		}
	}
	if s.Index[0] != 0 || s.Index[1] != 2 {
		t.Errorf("Unexpected index map %v", s.Index)
	}
	if s.Directories[1] != "/c" {
		t.Errorf("Expected directory /c, got %s", s.Directories[1])
	}
}

func TestNarrow_NoCandidateShares(t *testing.T) {
	pool := testPool(t)
	p, _ := CompilePattern(`grinnell_\d+`)

	s := Narrow(p, "grinnell_999", pool)

	if !s.Matched {
		t.Fatal("Expected significant match on target")
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty scope, got %v", s.Filenames)
	}
}
