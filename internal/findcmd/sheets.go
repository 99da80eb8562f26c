package findcmd

import (
	"context"
	"fmt"
	"io"

	"github.com/SummittDweller/cb-file-finder/internal/config"
	"github.com/SummittDweller/cb-file-finder/internal/sheets"
)

func executeSheets(ctx context.Context, out io.Writer, cfg config.Config, sheet, title string) error {
	url, err := cfg.ResolveSheet(sheet)
	if err != nil {
		return err
	}
	id, err := sheets.SpreadsheetID(url)
	if err != nil {
		return err
	}

	client, err := sheets.New(ctx, cfg.Credentials)
	if err != nil {
		return err
	}

	if title == "" {
		titles, err := client.Worksheets(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, worksheetTable(titles))
		return nil
	}

	ref, err := client.Resolve(ctx, url, title)
	if err != nil {
		return err
	}
	headings, err := client.Headings(ctx, ref)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, headingTable(headings))
	return nil
}

func worksheetTable(titles []string) string {
	t := newPrettyTable(column{title: "#", numeric: true}, column{title: "Worksheet"})
	for i, title := range titles {
		t.add(i+1, title)
	}
	return t.String()
}

// headingTable lists each heading with the number to pass as --column
func headingTable(headings []string) string {
	t := newPrettyTable(column{title: "--column", numeric: true}, column{title: "Letter"}, column{title: "Heading"})
	for i, h := range headings {
		t.add(i+1, sheets.ColumnLetter(i), h)
	}
	return t.String()
}
