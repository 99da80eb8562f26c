// Package reconcile runs every target through scoping, fuzzy ranking and
// scoring, producing the result table.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/SummittDweller/cb-file-finder/internal/candidates"
	"github.com/SummittDweller/cb-file-finder/internal/events"
	"github.com/SummittDweller/cb-file-finder/internal/fuzzy"
	"github.com/SummittDweller/cb-file-finder/internal/policy"
	"github.com/SummittDweller/cb-file-finder/internal/results"
	"github.com/SummittDweller/cb-file-finder/internal/scope"
)

// transcriptExtensions are the companion formats recognised as transcripts
var transcriptExtensions = map[string]bool{
	".csv": true,
	".vtt": true,
	".pdf": true,
	".xml": true,
}

// transcriptFloor is the final score a transcript match must exceed
const transcriptFloor = policy.AcceptThreshold - 1

// Options control a reconciliation run
type Options struct {
	SkipRows    int
	Pattern     *scope.Pattern
	Transcripts bool
	Limit       int
}

// RowWriter persists each row as soon as it is produced
type RowWriter interface {
	Append(results.Row) error
}

// Driver owns one reconciliation run
type Driver struct {
	opts   Options
	sink   events.Sink
	writer RowWriter
}

// New returns a driver. sink may be nil to discard events; writer may be
// nil when rows are only kept in memory.
func New(opts Options, sink events.Sink, writer RowWriter) *Driver {
	if sink == nil {
		sink = events.Discard
	}
	if opts.Limit <= 0 {
		opts.Limit = fuzzy.DefaultLimit
	}
	return &Driver{opts: opts, sink: sink, writer: writer}
}

// Run matches targets against pool in row order. Skipped rows are reported
// but not added to the table. It stops early when ctx is cancelled.
func (d *Driver) Run(ctx context.Context, targets []string, pool *candidates.Pool) (*results.Table, error) {
	table := &results.Table{}
	total := len(targets)

	slog.Info("Reconciliation started", "targets", total, "pool", pool.Len(), "pattern", d.opts.Pattern.String())

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return table, fmt.Errorf("reconciliation interrupted at row %d: %w", i, err)
		}

		row, ok := d.reconcile(i, target, pool)
		if ok {
			table.Append(row)
			if d.writer != nil {
				if err := d.writer.Append(row); err != nil {
					return table, fmt.Errorf("failed to persist row %d: %w", i, err)
				}
			}
		}

		d.sink.Progress(i+1, total)
	}

	slog.Info("Reconciliation finished", "rows", table.Len())
	return table, nil
}

func (d *Driver) reconcile(i int, target string, pool *candidates.Pool) (results.Row, bool) {
	if i < d.opts.SkipRows {
		events.Emitf(d.sink, events.SeverityWarning, i, "Skipping row %d: within the first %d rows", i, d.opts.SkipRows)
		return results.Row{}, false
	}
	if target == "" {
		events.Emitf(d.sink, events.SeverityWarning, i, "Skipping row %d: empty target", i)
		return results.Row{}, false
	}

	row := results.Row{
		Index:   i,
		Target:  target,
		Pattern: d.opts.Pattern.String(),
	}

	sc := scope.Narrow(d.opts.Pattern, target, pool)
	ranked := fuzzy.Extract(target, sc.Filenames, d.opts.Limit)
	if len(ranked) == 0 {
		msg := fmt.Sprintf("No match found for '%s'", target)
		if sc.Matched {
			msg = fmt.Sprintf("No match found for '%s' among names sharing '%s'", target, sc.Substring)
		}
		d.sink.Emit(events.Event{Severity: events.SeverityError, Row: i, Message: msg})
		return row, true
	}

	for _, r := range ranked {
		row.Matches = append(row.Matches, results.Match{
			Score: r.Score,
			Name:  r.Name,
			Path:  sc.Directories[r.ID],
		})
	}

	best := row.Matches[0]
	final := policy.TieBreak(target, best.Name, best.Score)
	d.sink.Emit(events.Event{
		Severity: severityFor(policy.TierFor(final)),
		Row:      i,
		Message:  fmt.Sprintf("Best match for '%s' is '%s' with a score of %d", target, best.Name, final),
	})

	if d.opts.Transcripts && final > transcriptFloor && IsTranscript(best.Name) {
		row.Transcript = best.Name
		events.Emitf(d.sink, events.SeverityInfo, i, "Transcript '%s' found for '%s'", best.Name, target)
	}

	return row, true
}

// IsTranscript reports whether name has a transcript extension
func IsTranscript(name string) bool {
	return transcriptExtensions[strings.ToLower(filepath.Ext(name))]
}

func severityFor(t policy.Tier) events.Severity {
	switch t {
	case policy.TierSuccess:
		return events.SeveritySuccess
	case policy.TierWarning:
		return events.SeverityWarning
	default:
		return events.SeverityError
	}
}
