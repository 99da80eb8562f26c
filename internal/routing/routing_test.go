package routing

import (
	"errors"
	"testing"

	"github.com/SummittDweller/cb-file-finder/internal/policy"
)

func TestNewRouter(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", DefaultBaseURL},
		{"https://example.blob.core.windows.net", "https://example.blob.core.windows.net/"},
		{"https://bucket.s3.amazonaws.com/", "https://bucket.s3.amazonaws.com/"},
	}

	for _, tt := range tests {
		if got := NewRouter(tt.input).BaseURL(); got != tt.expected {
			t.Errorf("NewRouter(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRoute(t *testing.T) {
	r := NewRouter("")

	tests := []struct {
		name      string
		target    string
		candidate string
		score     int
		mode      policy.Mode
		wantURL   string
		wantErr   error
	}{
		{
			name:      "object",
			target:    "accession-001_OBJ.tif",
			candidate: "accession-001_OBJ.tif",
			score:     100,
			mode:      policy.ModeObject,
			wantURL:   "https://dgobjects.blob.core.windows.net/objs/accession-001_OBJ.tif",
		},
		{
			name:      "object without infix",
			target:    "photo.tif",
			candidate: "photo.tif",
			score:     100,
			mode:      policy.ModeObject,
			wantURL:   "https://dgobjects.blob.core.windows.net/objs/photo.tif",
		},
		{
			name:      "thumbnail",
			target:    "item_TN.jpg",
			candidate: "item_TN.jpg",
			score:     100,
			mode:      policy.ModeThumbnail,
			wantURL:   "https://dgobjects.blob.core.windows.net/thumbs/item_TN.jpg",
		},
		{
			name:      "small",
			target:    "item_JPG.jpg",
			candidate: "item_JPG.jpg",
			score:     92,
			mode:      policy.ModeSmall,
			wantURL:   "https://dgobjects.blob.core.windows.net/smalls/item_JPG.jpg",
		},
		{
			name:      "transcript",
			target:    "interview",
			candidate: "interview.vtt",
			score:     91,
			mode:      policy.ModeTranscript,
			wantURL:   "https://dgobjects.blob.core.windows.net/transcripts/interview.vtt",
		},
		{
			name:      "thumbnail under object mode",
			target:    "item_TN.jpg",
			candidate: "item_TN.jpg",
			score:     100,
			mode:      policy.ModeObject,
			wantErr:   policy.ErrModeMismatch,
		},
		{
			name:      "thumbnail under small mode",
			target:    "item_TN.jpg",
			candidate: "item_TN.jpg",
			score:     100,
			mode:      policy.ModeSmall,
			wantErr:   policy.ErrModeMismatch,
		},
		{
			name:      "poor score",
			target:    "alpha.tif",
			candidate: "omega.tif",
			score:     70,
			mode:      policy.ModeObject,
			wantErr:   policy.ErrInsufficientScore,
		},
		{
			name:      "catalog number rescues",
			target:    "foo-042.obj",
			candidate: "bar-042.tif",
			score:     60,
			mode:      policy.ModeObject,
			wantURL:   "https://dgobjects.blob.core.windows.net/objs/bar-042.tif",
		},
		{
			name:      "unknown mode",
			target:    "photo.tif",
			candidate: "photo.tif",
			score:     100,
			mode:      policy.Mode("RAW"),
			wantErr:   ErrUnroutable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := r.Route(tt.target, tt.candidate, tt.score, tt.mode)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if route.URL != "" {
					t.Errorf("Rejected route should carry no URL, got %s", route.URL)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if route.URL != tt.wantURL {
				t.Errorf("Expected %s, got %s", tt.wantURL, route.URL)
			}
			if route.Key != tt.candidate {
				t.Errorf("Expected key %s, got %s", tt.candidate, route.Key)
			}
		})
	}
}
