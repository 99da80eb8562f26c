package findcmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column is one table column; numeric columns are right aligned
type column struct {
	title   string
	numeric bool
}

// prettyTable accumulates typed rows for terminal output
type prettyTable struct {
	tw    table.Writer
	width int
}

func newPrettyTable(columns ...column) *prettyTable {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		align := text.AlignLeft
		if c.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	return &prettyTable{tw: tw, width: len(columns)}
}

// add appends a row, padding missing cells
func (p *prettyTable) add(cells ...any) {
	row := make(table.Row, p.width)
	copy(row, cells)
	for i := len(cells); i < p.width; i++ {
		row[i] = ""
	}
	p.tw.AppendRow(row)
}

func (p *prettyTable) String() string {
	return p.tw.Render()
}
