package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/SummittDweller/cb-file-finder/internal/config"
	"github.com/SummittDweller/cb-file-finder/internal/routing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUpload_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	src := filepath.Join(t.TempDir(), "item_OBJ.tif")
	writeFile(t, src, "first")

	outcome, err := Upload(ctx, store, routing.ContainerObjects, "item_OBJ.tif", src)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome != OutcomeCopied {
		t.Errorf("Expected COPIED, got %s", outcome)
	}

	outcome, err = Upload(ctx, store, routing.ContainerObjects, "item_OBJ.tif", src)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome != OutcomeExists {
		t.Errorf("Expected EXISTS, got %s", outcome)
	}
	if store.Puts() != 1 {
		t.Errorf("Expected exactly one transfer, got %d", store.Puts())
	}
}

func TestUpload_CollisionKeepsFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	dir := t.TempDir()
	first := filepath.Join(dir, "a", "scan_OBJ.jpg")
	second := filepath.Join(dir, "b", "scan_OBJ.jpg")
	writeFile(t, first, "from a")
	writeFile(t, second, "from b")

	if _, err := Upload(ctx, store, routing.ContainerObjects, "scan_OBJ.jpg", first); err != nil {
		t.Fatal(err)
	}
	outcome, err := Upload(ctx, store, routing.ContainerObjects, "scan_OBJ.jpg", second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeExists {
		t.Errorf("Expected EXISTS for colliding name, got %s", outcome)
	}

	data, _ := store.Get(routing.ContainerObjects, "scan_OBJ.jpg")
	if string(data) != "from a" {
		t.Errorf("Existing blob was overwritten: %q", data)
	}
}

func TestUpload_ContainersAreSeparate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	src := filepath.Join(t.TempDir(), "talk.pdf")
	writeFile(t, src, "pdf")

	for _, c := range []routing.Container{routing.ContainerObjects, routing.ContainerTranscripts} {
		outcome, err := Upload(ctx, store, c, "talk.pdf", src)
		if err != nil {
			t.Fatal(err)
		}
		if outcome != OutcomeCopied {
			t.Errorf("%s: expected COPIED, got %s", c, outcome)
		}
	}
	if len(store.Keys()) != 2 {
		t.Errorf("Expected 2 keys, got %v", store.Keys())
	}
}

type failingStore struct {
	existsErr error
	putErr    error
}

func (f failingStore) Exists(ctx context.Context, container routing.Container, key string) (bool, error) {
	return false, f.existsErr
}

func (f failingStore) Put(ctx context.Context, container routing.Container, key string, body io.Reader) error {
	return f.putErr
}

func TestUpload_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	src := filepath.Join(t.TempDir(), "x_OBJ.tif")
	writeFile(t, src, "x")

	tests := []struct {
		name  string
		store Store
		path  string
	}{
		{name: "exists fails", store: failingStore{existsErr: boom}, path: src},
		{name: "put fails", store: failingStore{putErr: boom}, path: src},
		{name: "missing source", store: NewMemoryStore(), path: filepath.Join(t.TempDir(), "missing")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Upload(ctx, tt.store, routing.ContainerObjects, "x_OBJ.tif", tt.path)
			if err == nil {
				t.Fatal("Expected error")
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.Storage{Backend: config.BackendMemory})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("Expected *MemoryStore, got %T", store)
	}

	_, err = Open(ctx, config.Storage{Backend: config.BackendAzure, Azure: config.Azure{ConnectionStringEnv: "CB_TEST_UNSET_CONNECTION"}})
	if !errors.Is(err, ErrMissingConnectionString) {
		t.Errorf("Expected ErrMissingConnectionString, got %v", err)
	}

	_, err = Open(ctx, config.Storage{Backend: "ftp"})
	if !errors.Is(err, config.ErrUnknownBackend) {
		t.Errorf("Expected ErrUnknownBackend, got %v", err)
	}
}
