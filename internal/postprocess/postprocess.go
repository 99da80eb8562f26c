// Package postprocess migrates accepted matches to object storage and
// records their URLs in the worksheet frame.
package postprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/SummittDweller/cb-file-finder/internal/blobstore"
	"github.com/SummittDweller/cb-file-finder/internal/derivative"
	"github.com/SummittDweller/cb-file-finder/internal/events"
	"github.com/SummittDweller/cb-file-finder/internal/policy"
	"github.com/SummittDweller/cb-file-finder/internal/results"
	"github.com/SummittDweller/cb-file-finder/internal/routing"
	"github.com/SummittDweller/cb-file-finder/internal/sheets"
)

// CollectionBuilder column names
const (
	ColumnObject     = "object_location"
	ColumnTranscript = "object_transcript"
	ColumnThumb      = "image_thumb"
	ColumnSmall      = "image_small"
	ColumnTemplate   = "display_template"

	templateTranscript = "transcript"
)

// Counters tallies main object uploads
type Counters struct {
	Copied  int
	Exists  int
	Skipped int
}

func (c Counters) String() string {
	return fmt.Sprintf("copied=%d exists=%d skipped=%d", c.Copied, c.Exists, c.Skipped)
}

// Options select the post-processing steps
type Options struct {
	Upload     bool
	WriteBack  bool
	Thumbnails bool
	Smalls     bool
}

// Renderer produces a derivative file from a source file
type Renderer interface {
	Generate(ctx context.Context, spec derivative.Spec, src string) (string, error)
}

// FrameWriter stores a frame back into its worksheet
type FrameWriter interface {
	WriteFrame(ctx context.Context, ref sheets.Ref, f *sheets.Frame) error
}

// Processor handles the result table row by row
type Processor struct {
	opts     Options
	router   *routing.Router
	store    blobstore.Store
	renderer Renderer
	frame    *sheets.Frame
	sink     events.Sink
}

// New returns a processor. store may be nil when uploads are disabled and
// frame may be nil when nothing is written back.
func New(opts Options, router *routing.Router, store blobstore.Store, renderer Renderer, frame *sheets.Frame, sink events.Sink) *Processor {
	if sink == nil {
		sink = events.Discard
	}
	if store == nil {
		opts.Upload = false
	}
	if frame == nil {
		opts.WriteBack = false
	}
	if renderer == nil {
		opts.Thumbnails = false
		opts.Smalls = false
	}
	return &Processor{
		opts:     opts,
		router:   router,
		store:    store,
		renderer: renderer,
		frame:    frame,
		sink:     sink,
	}
}

// Process runs every row. Per-row failures are reported as events and
// counted; only cancellation stops the loop.
func (p *Processor) Process(ctx context.Context, table *results.Table) (Counters, error) {
	var counters Counters
	total := table.Len()

	slog.Info("Post-processing started", "rows", total, "upload", p.opts.Upload, "writeback", p.opts.WriteBack)

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return counters, fmt.Errorf("post-processing interrupted: %w", err)
		}
		p.processRow(ctx, row, &counters)
		p.sink.Progress(i+1, total)
	}

	events.Emitf(p.sink, events.SeveritySuccess, events.NoRow, "Storage results: %s", counters)
	return counters, nil
}

func (p *Processor) processRow(ctx context.Context, row results.Row, counters *Counters) {
	best, ok := row.Best()
	if !ok {
		counters.Skipped++
		return
	}

	route, err := p.router.Route(row.Target, best.Name, best.Score, policy.ModeObject)
	if err != nil {
		counters.Skipped++
		p.sink.Emit(events.Event{
			Severity: events.SeverityError,
			Row:      row.Index,
			Message:  fmt.Sprintf("Best match for '%s' will not be copied to storage", row.Target),
			Err:      err,
		})
		return
	}

	if !p.opts.Upload {
		events.Emitf(p.sink, events.SeverityInfo, row.Index, "'%s' would be stored at %s", best.Name, route.URL)
		return
	}

	local := filepath.Join(best.Path, best.Name)
	outcome, err := blobstore.Upload(ctx, p.store, route.Container, route.Key, local)
	if err != nil {
		counters.Skipped++
		p.sink.Emit(events.Event{
			Severity: events.SeverityCritical,
			Row:      row.Index,
			Message:  fmt.Sprintf("Upload of '%s' failed", local),
			Err:      err,
		})
		return
	}

	switch outcome {
	case blobstore.OutcomeExists:
		counters.Exists++
		events.Emitf(p.sink, events.SeverityWarning, row.Index, "Blob '%s' already exists in container '%s'; upload skipped", route.Key, route.Container)
	case blobstore.OutcomeCopied:
		counters.Copied++
		events.Emitf(p.sink, events.SeveritySuccess, row.Index, "'%s' copied to %s", best.Name, route.URL)
	}
	p.set(row.Index, ColumnObject, route.URL)

	if row.Transcript != "" {
		p.transcript(ctx, row, best)
	}

	if p.opts.Thumbnails {
		p.makeDerivative(ctx, row.Index, derivative.Thumbnail, local, ColumnThumb)
	}
	if p.opts.Smalls {
		p.makeDerivative(ctx, row.Index, derivative.Small, local, ColumnSmall)
	}
}

func (p *Processor) transcript(ctx context.Context, row results.Row, best results.Match) {
	route, err := p.router.Route(row.Target, row.Transcript, best.Score, policy.ModeTranscript)
	if err != nil {
		p.sink.Emit(events.Event{Severity: events.SeverityError, Row: row.Index, Message: "Transcript not routed", Err: err})
		return
	}

	local := filepath.Join(best.Path, row.Transcript)
	outcome, err := blobstore.Upload(ctx, p.store, route.Container, route.Key, local)
	if err != nil {
		p.sink.Emit(events.Event{
			Severity: events.SeverityCritical,
			Row:      row.Index,
			Message:  fmt.Sprintf("Transcript upload of '%s' failed", local),
			Err:      err,
		})
		return
	}

	events.Emitf(p.sink, events.SeverityInfo, row.Index, "Transcript '%s' %s at %s", row.Transcript, outcome, route.URL)
	p.set(row.Index, ColumnTranscript, route.URL)
	p.set(row.Index, ColumnTemplate, templateTranscript)
}

func (p *Processor) makeDerivative(ctx context.Context, index int, spec derivative.Spec, src, column string) {
	path, err := p.renderer.Generate(ctx, spec, src)
	if err != nil {
		sev := events.SeverityError
		if errors.Is(err, derivative.ErrUnsupportedSource) {
			sev = events.SeverityWarning
		}
		p.sink.Emit(events.Event{Severity: sev, Row: index, Message: fmt.Sprintf("Cannot create a %s for '%s'", spec.Kind, filepath.Base(src)), Err: err})
		return
	}
	defer os.Remove(path)

	key := filepath.Base(path)
	outcome, err := blobstore.Upload(ctx, p.store, spec.Container, key, path)
	if err != nil {
		p.sink.Emit(events.Event{
			Severity: events.SeverityCritical,
			Row:      index,
			Message:  fmt.Sprintf("Upload of %s '%s' failed", spec.Kind, key),
			Err:      err,
		})
		return
	}

	url := p.router.URL(spec.Container, key)
	events.Emitf(p.sink, events.SeverityInfo, index, "%s '%s' %s at %s", spec.Kind, key, outcome, url)
	p.set(index, column, url)
}

// set writes into the frame row for worksheet row index; row 0 is the header
func (p *Processor) set(index int, column, value string) {
	if !p.opts.WriteBack {
		return
	}
	if err := p.frame.Set(index-1, column, value); err != nil {
		events.Emitf(p.sink, events.SeverityError, index, "Cannot record %s: %v", column, err)
	}
}

// WriteBack stores the frame into ref. On failure the frame is dumped at
// debug level so its URLs are not lost.
func (p *Processor) WriteBack(ctx context.Context, w FrameWriter, ref sheets.Ref) error {
	if !p.opts.WriteBack {
		return nil
	}

	if err := w.WriteFrame(ctx, ref, p.frame); err != nil {
		p.sink.Emit(events.Event{
			Severity: events.SeverityError,
			Row:      events.NoRow,
			Message:  fmt.Sprintf("Worksheet '%s' was NOT updated", ref.Title),
			Err:      err,
		})
		slog.Debug("Unsaved worksheet frame", "worksheet", ref.Title, "frame", p.frame.String())
		return fmt.Errorf("failed to write back worksheet: %w", err)
	}

	events.Emitf(p.sink, events.SeveritySuccess, events.NoRow, "Updated file URLs saved to worksheet '%s'", ref.Title)
	return nil
}
