// Package blobstore copies local files into object storage without ever
// overwriting what is already there.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/SummittDweller/cb-file-finder/internal/config"
	"github.com/SummittDweller/cb-file-finder/internal/routing"
)

// Outcome reports what Upload did
type Outcome string

const (
	OutcomeExists Outcome = "EXISTS"
	OutcomeCopied Outcome = "COPIED"
)

// Store is an object store addressed by container and key
type Store interface {
	Exists(ctx context.Context, container routing.Container, key string) (bool, error)
	Put(ctx context.Context, container routing.Container, key string, body io.Reader) error
}

// Upload copies localPath to container/key unless the key already exists.
// An existing key is never overwritten and no bytes are transferred for it.
func Upload(ctx context.Context, store Store, container routing.Container, key, localPath string) (Outcome, error) {
	exists, err := store.Exists(ctx, container, key)
	if err != nil {
		return "", fmt.Errorf("failed to check %s/%s: %w", container, key, err)
	}
	if exists {
		slog.Debug("Blob already present", "container", container, "key", key)
		return OutcomeExists, nil
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer file.Close()

	if err := store.Put(ctx, container, key, file); err != nil {
		return "", fmt.Errorf("failed to upload %s to %s/%s: %w", localPath, container, key, err)
	}

	slog.Debug("Blob uploaded", "container", container, "key", key, "source", localPath)
	return OutcomeCopied, nil
}

// Open returns the store selected by cfg
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	switch cfg.Backend {
	case config.BackendAzure:
		return NewAzureStore(os.Getenv(cfg.Azure.ConnectionStringEnv))
	case config.BackendS3:
		return NewS3Store(ctx, cfg.S3)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}
