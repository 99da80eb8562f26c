package findcmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/SummittDweller/cb-file-finder/internal/policy"
	"github.com/SummittDweller/cb-file-finder/internal/results"
)

func executeReport(out io.Writer, input, format, parquetOut string, maxScore int) error {
	table, err := loadTable(input)
	if err != nil {
		return err
	}

	if parquetOut != "" {
		if err := results.WriteParquet(parquetOut, table); err != nil {
			return err
		}
	}

	filtered := &results.Table{}
	for _, r := range table.Rows {
		if final, ok := r.FinalScore(); !ok || final <= maxScore {
			filtered.Append(r)
		}
	}

	switch format {
	case "table":
		fmt.Fprintln(out, matchTable(filtered))
		var s results.Summary
		s.Tally(table)
		fmt.Fprintf(out, "%d rows: perfect=%d warned=%d poor=%d nomatch=%d\n",
			s.Counts.Rows, s.Counts.Perfect, s.Counts.Warned, s.Counts.Poor, s.Counts.NoMatch)
		return nil
	case "csv":
		return results.WriteCSV(out, filtered)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func loadTable(path string) (*results.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return results.ReadParquet(path)
	}
	return results.ReadCSV(path)
}

func matchTable(t *results.Table) string {
	view := newPrettyTable(
		column{title: "No.", numeric: true},
		column{title: "Target"},
		column{title: "Score", numeric: true},
		column{title: "Tier"},
		column{title: "Best Match"},
		column{title: "Transcript"},
	)
	for _, r := range t.Rows {
		best, ok := r.Best()
		if !ok {
			view.add(r.Index, r.Target, "", policy.TierError, "", r.Transcript)
			continue
		}
		final, _ := r.FinalScore()
		view.add(r.Index, r.Target, final, policy.TierFor(final), best.Name, r.Transcript)
	}
	return view.String()
}
