package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Header is the match-list CSV header. The trailing transcript column holds
// the companion transcript found for a row, if any.
var Header = []string{
	"No.", "Target", "Significant regex", "Best Match Score",
	"Best Match", "Best Match Path", "2nd Match Score",
	"2nd Match", "2nd Match Path", "3rd Match Score",
	"3rd Match", "3rd Match Path", "Transcript Match",
}

// legacyWidth is the width of rows written before ranked 2nd/3rd matches
// were persisted: No., Target, regex, score, match, path, transcript.
const legacyWidth = 7

// Record flattens a row into CSV fields
func (r Row) Record() []string {
	record := make([]string, len(Header))
	record[0] = strconv.Itoa(r.Index)
	record[1] = r.Target
	record[2] = r.Pattern
	for i := 0; i < 3 && i < len(r.Matches); i++ {
		m := r.Matches[i]
		record[3+i*3] = strconv.Itoa(m.Score)
		record[4+i*3] = m.Name
		record[5+i*3] = m.Path
	}
	record[len(Header)-1] = r.Transcript
	return record
}

// CSVWriter persists rows as they are produced, so an interrupted run still
// leaves every finished row on disk.
type CSVWriter struct {
	file *os.File
	w    *csv.Writer
}

// CreateCSV truncates path and writes the header
func CreateCSV(path string) (*CSVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create results file: %w", err)
	}

	c := &CSVWriter{file: file, w: csv.NewWriter(file)}
	if err := c.write(Header); err != nil {
		file.Close()
		return nil, err
	}
	return c, nil
}

// Append writes one row and flushes it
func (c *CSVWriter) Append(r Row) error {
	return c.write(r.Record())
}

func (c *CSVWriter) write(record []string) error {
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("failed to write results row: %w", err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("failed to flush results file: %w", err)
	}
	return nil
}

// Close closes the underlying file
func (c *CSVWriter) Close() error {
	return c.file.Close()
}

// WriteCSV writes a whole table to w
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range t.Rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a match-list CSV. Rows in the older seven column layout and
// in the twelve column layout without a transcript field are accepted too.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse results file: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	table := &Table{}
	for n, record := range records[1:] {
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("failed to parse results line %d: %w", n+2, err)
		}
		table.Append(row)
	}
	return table, nil
}

func parseRecord(record []string) (Row, error) {
	if len(record) < legacyWidth {
		return Row{}, fmt.Errorf("expected at least %d fields, got %d", legacyWidth, len(record))
	}

	index, err := strconv.Atoi(record[0])
	if err != nil {
		return Row{}, fmt.Errorf("invalid row number %q: %w", record[0], err)
	}

	row := Row{
		Index:   index,
		Target:  record[1],
		Pattern: record[2],
	}

	// the twelve column layout has no transcript field
	slots := 3
	switch len(record) {
	case legacyWidth:
		row.Transcript = record[legacyWidth-1]
		slots = 1
	case len(Header):
		row.Transcript = record[len(Header)-1]
	}

	for i := 0; i < slots; i++ {
		base := 3 + i*3
		if base+2 >= len(record) || record[base] == "" {
			break
		}
		score, err := strconv.Atoi(record[base])
		if err != nil {
			return Row{}, fmt.Errorf("invalid score %q: %w", record[base], err)
		}
		row.Matches = append(row.Matches, Match{
			Score: score,
			Name:  record[base+1],
			Path:  record[base+2],
		})
	}

	return row, nil
}
