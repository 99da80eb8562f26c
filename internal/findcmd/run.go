package findcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/SummittDweller/cb-file-finder/internal/blobstore"
	"github.com/SummittDweller/cb-file-finder/internal/candidates"
	"github.com/SummittDweller/cb-file-finder/internal/config"
	"github.com/SummittDweller/cb-file-finder/internal/derivative"
	"github.com/SummittDweller/cb-file-finder/internal/events"
	"github.com/SummittDweller/cb-file-finder/internal/postprocess"
	"github.com/SummittDweller/cb-file-finder/internal/reconcile"
	"github.com/SummittDweller/cb-file-finder/internal/results"
	"github.com/SummittDweller/cb-file-finder/internal/routing"
	"github.com/SummittDweller/cb-file-finder/internal/scope"
	"github.com/SummittDweller/cb-file-finder/internal/sheets"
	"github.com/SummittDweller/cb-file-finder/internal/targets"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// lockFile guards file-list.tmp and the match list in the working directory
const lockFile = ".cb-file-finder.lock"

var ErrRunInProgress = errors.New("another run is using this directory")

// worksheet bundles the sheet client with the worksheet a run reads from
type worksheet struct {
	client *sheets.Client
	ref    sheets.Ref
}

func executeRun(ctx context.Context, out io.Writer, cfg config.Config) error {
	started := time.Now()
	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID)
	sink := events.NewLogSink(logger)

	for _, w := range cfg.Normalize() {
		events.Emitf(sink, events.SeverityWarning, events.NoRow, "%s", w)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	lock := flock.New(lockFile)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return ErrRunInProgress
	}
	defer func() { _ = lock.Unlock() }()

	root, err := cfg.ResolvePath(cfg.Root)
	if err != nil {
		return err
	}
	pattern, err := scope.CompilePattern(cfg.Pattern)
	if err != nil {
		return err
	}

	logger.Info("Run started", "root", root, "pattern", cfg.Pattern, "cached", cfg.UseCache, "upload", cfg.Upload)

	var ws *worksheet
	var source targets.Source
	if cfg.UseCache {
		source = &targets.CachedSource{Path: targets.CacheFile}
	} else {
		ws, err = openWorksheet(ctx, cfg)
		if err != nil {
			return err
		}
		source = &targets.SheetSource{
			Reader:    ws.client,
			Ref:       ws.ref,
			Column:    cfg.Column,
			CachePath: targets.CacheFile,
		}
	}

	list, err := source.Targets(ctx)
	if err != nil {
		return err
	}

	var frame *sheets.Frame
	if cfg.WriteBack {
		frame, err = ws.client.ReadFrame(ctx, ws.ref)
		if err != nil {
			return err
		}
	}

	logger.Info("Building candidate pool", "root", root)
	pool, err := candidates.Build(root)
	if err != nil {
		return fmt.Errorf("failed to build candidate pool: %w", err)
	}
	logger.Info("Candidate pool built", "files", pool.Len())

	var writer reconcile.RowWriter
	if cfg.OutputCSV != "" {
		csvWriter, err := results.CreateCSV(cfg.OutputCSV)
		if err != nil {
			return err
		}
		defer csvWriter.Close()
		writer = csvWriter
	}

	driver := reconcile.New(reconcile.Options{
		SkipRows:    cfg.SkipRows,
		Pattern:     pattern,
		Transcripts: cfg.Transcripts,
	}, sink, writer)

	table, err := driver.Run(ctx, list, pool)
	if err != nil {
		return err
	}

	var store blobstore.Store
	if cfg.Upload {
		store, err = blobstore.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
	}

	var renderer postprocess.Renderer
	if cfg.Thumbnails || cfg.Smalls {
		renderer = &derivative.Generator{TempDir: os.TempDir()}
	}

	processor := postprocess.New(postprocess.Options{
		Upload:     cfg.Upload,
		WriteBack:  cfg.WriteBack,
		Thumbnails: cfg.Thumbnails,
		Smalls:     cfg.Smalls,
	}, routing.NewRouter(cfg.BaseURL), store, renderer, frame, sink)

	counters, err := processor.Process(ctx, table)
	if err != nil {
		return err
	}

	if cfg.WriteBack {
		// A failed write-back is reported but the run's other outputs are still saved
		_ = processor.WriteBack(ctx, ws.client, ws.ref)
	}

	if cfg.Parquet != "" {
		if err := results.WriteParquet(cfg.Parquet, table); err != nil {
			return err
		}
	}

	summary := results.Summary{
		RunID:     runID,
		Timestamp: started.Format("2006-01-02_15-04-05"),
		Config: results.SummaryConfig{
			Root:        root,
			Source:      source.Describe(),
			Pattern:     cfg.Pattern,
			SkipRows:    cfg.SkipRows,
			Upload:      cfg.Upload,
			Transcripts: cfg.Transcripts,
			Mode:        processingMode(cfg),
		},
	}
	summary.Tally(table)
	summary.Counts.Targets = len(list)
	summary.Counts.Pool = pool.Len()
	summary.Counts.Copied = counters.Copied
	summary.Counts.Exists = counters.Exists
	summary.Counts.Skipped = counters.Skipped
	summary.Counts.Duration = time.Since(started).Round(time.Millisecond).String()

	if cfg.SummaryDir != "" {
		path, err := results.SaveSummary(cfg.SummaryDir, summary)
		if err != nil {
			return err
		}
		logger.Info("Run summary saved", "path", path)
	}

	fmt.Fprintln(out, summaryTable(summary))
	return nil
}

func openWorksheet(ctx context.Context, cfg config.Config) (*worksheet, error) {
	url, err := cfg.ResolveSheet(cfg.Sheet)
	if err != nil {
		return nil, err
	}

	client, err := sheets.New(ctx, cfg.Credentials)
	if err != nil {
		return nil, err
	}

	ref, err := client.Resolve(ctx, url, cfg.Worksheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open worksheet: %w", err)
	}

	slog.Info("Worksheet opened", "spreadsheet", ref.SpreadsheetID, "worksheet", ref.Title)
	return &worksheet{client: client, ref: ref}, nil
}

func processingMode(cfg config.Config) string {
	if cfg.WriteBack {
		return cfg.ProcessingMode
	}
	return ""
}

func summaryTable(s results.Summary) string {
	c := s.Counts
	t := newPrettyTable(column{title: "Run " + s.RunID}, column{title: "Count", numeric: true})
	t.add("Targets", c.Targets)
	t.add("Rows matched", c.Rows)
	t.add("Perfect (100)", c.Perfect)
	t.add("Warned (90-99)", c.Warned)
	t.add("Poor (<90)", c.Poor)
	t.add("No match", c.NoMatch)
	t.add("Copied", c.Copied)
	t.add("Exists", c.Exists)
	t.add("Skipped", c.Skipped)
	t.add("Candidate files", c.Pool)
	t.add("Duration", c.Duration)
	return t.String()
}
