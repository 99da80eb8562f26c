package candidates

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyPool is returned when a search root yields no visible files.
var ErrEmptyPool = errors.New("search root returned no files")

// Pool is the set of files found under a search root.
// Filenames[i] lives in Directories[i]; the shared index is the only link between them.
type Pool struct {
	Filenames   []string
	Directories []string
}

// NewPool builds a pool from parallel filename and directory slices
func NewPool(filenames, directories []string) (*Pool, error) {
	if len(filenames) != len(directories) {
		return nil, fmt.Errorf("filenames and directories differ in length: %d != %d", len(filenames), len(directories))
	}
	return &Pool{
		Filenames:   filenames,
		Directories: directories,
	}, nil
}

// Build walks root recursively and collects every visible file.
// Hidden entries (names starting with ".") are pruned at every depth, so a
// hidden directory is never descended into.
func Build(root string) (*Pool, error) {
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat search root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("search root %s is not a directory", root)
	}

	pool := &Pool{
		Filenames:   make([]string, 0, 1024),
		Directories: make([]string, 0, 1024),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if path == root {
			return walkErr
		}
		if walkErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			slog.Warn("Unable to read path during walk", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		pool.Filenames = append(pool.Filenames, d.Name())
		pool.Directories = append(pool.Directories, filepath.Dir(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk search root: %w", err)
	}

	if pool.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPool, root)
	}

	slog.Debug("Candidate pool built", "root", root, "files", pool.Len())
	return pool, nil
}

// Len returns the number of candidates in the pool
func (p *Pool) Len() int {
	return len(p.Filenames)
}

// Path returns the full path of candidate i
func (p *Pool) Path(i int) string {
	return filepath.Join(p.Directories[i], p.Filenames[i])
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
