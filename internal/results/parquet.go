package results

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
)

// parquetRow is the columnar form of a Row. Missing 2nd/3rd matches have a
// zero score and empty names.
type parquetRow struct {
	No         int64  `parquet:"no"`
	Target     string `parquet:"target"`
	Pattern    string `parquet:"significant_regex"`
	BestScore  int32  `parquet:"best_match_score"`
	BestMatch  string `parquet:"best_match"`
	BestPath   string `parquet:"best_match_path"`
	Score2     int32  `parquet:"second_match_score"`
	Match2     string `parquet:"second_match"`
	Path2      string `parquet:"second_match_path"`
	Score3     int32  `parquet:"third_match_score"`
	Match3     string `parquet:"third_match"`
	Path3      string `parquet:"third_match_path"`
	Transcript string `parquet:"transcript_match"`
	Matched    int32  `parquet:"matched"`
}

func toParquet(r Row) parquetRow {
	p := parquetRow{
		No:         int64(r.Index),
		Target:     r.Target,
		Pattern:    r.Pattern,
		Transcript: r.Transcript,
		Matched:    int32(len(r.Matches)),
	}
	slots := []struct {
		score *int32
		name  *string
		path  *string
	}{
		{&p.BestScore, &p.BestMatch, &p.BestPath},
		{&p.Score2, &p.Match2, &p.Path2},
		{&p.Score3, &p.Match3, &p.Path3},
	}
	for i, m := range r.Matches {
		if i >= len(slots) {
			break
		}
		*slots[i].score = int32(m.Score)
		*slots[i].name = m.Name
		*slots[i].path = m.Path
	}
	return p
}

func fromParquet(p parquetRow) Row {
	r := Row{
		Index:      int(p.No),
		Target:     p.Target,
		Pattern:    p.Pattern,
		Transcript: p.Transcript,
	}
	all := []Match{
		{Score: int(p.BestScore), Name: p.BestMatch, Path: p.BestPath},
		{Score: int(p.Score2), Name: p.Match2, Path: p.Path2},
		{Score: int(p.Score3), Name: p.Match3, Path: p.Path3},
	}
	for i := 0; i < int(p.Matched) && i < len(all); i++ {
		r.Matches = append(r.Matches, all[i])
	}
	return r
}

// WriteParquet exports the table to a Parquet file
func WriteParquet(path string, t *Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	rows := make([]parquetRow, 0, t.Len())
	for _, r := range t.Rows {
		rows = append(rows, toParquet(r))
	}

	writer := parquet.NewGenericWriter[parquetRow](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Parquet export written", "path", path, "rows", len(rows))
	return nil
}

// ReadParquet loads a table previously written by WriteParquet
func ReadParquet(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[parquetRow](pf)
	defer reader.Close()

	table, err := readRows(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet rows from %s: %w", path, err)
	}
	return table, nil
}

type parquetRowReader interface {
	Read(rows []parquetRow) (int, error)
}

// readRows drains r until io.EOF
func readRows(r parquetRowReader) (*Table, error) {
	table := &Table{}
	rows := make([]parquetRow, 128)
	for {
		n, err := r.Read(rows)
		for _, p := range rows[:n] {
			table.Append(fromParquet(p))
		}
		if errors.Is(err, io.EOF) {
			return table, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
