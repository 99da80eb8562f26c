// Package targets supplies the ordered list of expected filenames. Position
// in the list is the worksheet row, so blank entries are kept.
package targets

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/SummittDweller/cb-file-finder/internal/sheets"
)

// CacheFile is where the last sheet column read is saved
const CacheFile = "file-list.tmp"

// Source produces a target list
type Source interface {
	Targets(ctx context.Context) ([]string, error)
	Describe() string
}

// ColumnReader reads one column of a worksheet
type ColumnReader interface {
	Column(ctx context.Context, ref sheets.Ref, n int) ([]string, error)
}

// SheetSource reads a live worksheet column and refreshes the cache
type SheetSource struct {
	Reader    ColumnReader
	Ref       sheets.Ref
	Column    int
	CachePath string
}

func (s *SheetSource) Targets(ctx context.Context) ([]string, error) {
	values, err := s.Reader.Column(ctx, s.Ref, s.Column)
	if err != nil {
		return nil, fmt.Errorf("failed to read target column: %w", err)
	}

	if s.CachePath != "" {
		if err := Save(s.CachePath, values); err != nil {
			slog.Warn("Could not cache target list", "path", s.CachePath, "error", err)
		}
	}

	slog.Info("Targets read from sheet", "worksheet", s.Ref.Title, "column", sheets.ColumnLetter(s.Column-1), "count", len(values))
	return values, nil
}

func (s *SheetSource) Describe() string {
	return fmt.Sprintf("sheet %s / %s column %s", s.Ref.SpreadsheetID, s.Ref.Title, sheets.ColumnLetter(s.Column-1))
}

// CachedSource reads the list saved by a previous SheetSource
type CachedSource struct {
	Path string
}

func (c *CachedSource) Targets(ctx context.Context) ([]string, error) {
	values, err := Load(c.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("Targets read from cache", "path", c.Path, "count", len(values))
	return values, nil
}

func (c *CachedSource) Describe() string {
	return "cache " + c.Path
}

// Save writes one target per line
func Save(path string, values []string) error {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(strings.ReplaceAll(v, "\n", " "))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write target cache: %w", err)
	}
	return nil
}

// Load reads a file written by Save
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target cache: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxCapacity)

	var values []string
	for scanner.Scan() {
		values = append(values, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading target cache: %w", err)
	}

	return values, nil
}
