package sheets

import (
	"fmt"
	"strings"
)

// Frame is an in-memory copy of a worksheet: a header row plus data rows.
// Data row 0 is worksheet row 2.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewFrame builds a frame from raw worksheet values, the first row being the header
func NewFrame(values [][]string) *Frame {
	f := &Frame{index: make(map[string]int)}
	if len(values) == 0 {
		return f
	}

	width := 0
	for _, row := range values {
		width = max(width, len(row))
	}
	for i := 0; i < width; i++ {
		name := ""
		if i < len(values[0]) {
			name = values[0][i]
		}
		f.addColumn(name)
	}
	for _, row := range values[1:] {
		cp := make([]string, len(f.columns))
		copy(cp, row)
		f.rows = append(f.rows, cp)
	}
	return f
}

func (f *Frame) addColumn(name string) int {
	f.columns = append(f.columns, name)
	i := len(f.columns) - 1
	if _, ok := f.index[name]; !ok && name != "" {
		f.index[name] = i
	}
	for r := range f.rows {
		f.rows[r] = append(f.rows[r], "")
	}
	return i
}

// Len returns the number of data rows
func (f *Frame) Len() int {
	return len(f.rows)
}

// Columns returns the header names
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Set stores value at data row row in column, adding the column if the
// header lacks it.
func (f *Frame) Set(row int, column, value string) error {
	if row < 0 || row >= len(f.rows) {
		return fmt.Errorf("row %d out of range (%d rows)", row, len(f.rows))
	}
	if strings.TrimSpace(column) == "" {
		return fmt.Errorf("empty column name")
	}
	i, ok := f.index[column]
	if !ok {
		i = f.addColumn(column)
	}
	f.rows[row][i] = value
	return nil
}

// Get returns the value at data row row in column
func (f *Frame) Get(row int, column string) (string, bool) {
	i, ok := f.index[column]
	if !ok || row < 0 || row >= len(f.rows) {
		return "", false
	}
	return f.rows[row][i], true
}

// Values returns header and rows, every row as wide as the header
func (f *Frame) Values() [][]string {
	out := make([][]string, 0, len(f.rows)+1)
	out = append(out, f.Columns())
	for _, r := range f.rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}

// String renders the frame as tab separated lines for debug logging
func (f *Frame) String() string {
	var b strings.Builder
	for _, row := range f.Values() {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}
