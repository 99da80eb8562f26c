// Package sheets reads target columns from Google Sheets and writes storage
// URLs back into them.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

var (
	ErrInvalidURL     = errors.New("not a google sheets url")
	ErrNoWorksheet    = errors.New("worksheet not found")
	ErrColumnOutRange = errors.New("column out of range")
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// SpreadsheetID extracts the document id from a sheet URL. A bare id is
// returned unchanged.
func SpreadsheetID(url string) (string, error) {
	url = strings.TrimSpace(url)
	if m := spreadsheetIDPattern.FindStringSubmatch(url); m != nil {
		return m[1], nil
	}
	if url != "" && !strings.ContainsAny(url, "/:?#") {
		return url, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidURL, url)
}

// Ref addresses one worksheet of a spreadsheet
type Ref struct {
	SpreadsheetID string
	Title         string
}

func (r Ref) rangeOf(a1 string) string {
	quoted := "'" + strings.ReplaceAll(r.Title, "'", "''") + "'"
	if a1 == "" {
		return quoted
	}
	return quoted + "!" + a1
}

// Client reads and writes worksheets through the Sheets v4 API
type Client struct {
	svc *gsheets.Service
}

// New authenticates with a service account credentials file. An empty path
// falls back to application default credentials.
func New(ctx context.Context, credentialsFile string) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Worksheets lists worksheet titles in sheet order
func (c *Client) Worksheets(ctx context.Context, spreadsheetID string) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet %s: %w", spreadsheetID, err)
	}

	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

// Resolve builds a Ref from a sheet URL and worksheet title. An empty title
// selects the first worksheet.
func (c *Client) Resolve(ctx context.Context, url, title string) (Ref, error) {
	id, err := SpreadsheetID(url)
	if err != nil {
		return Ref{}, err
	}

	titles, err := c.Worksheets(ctx, id)
	if err != nil {
		return Ref{}, err
	}
	if len(titles) == 0 {
		return Ref{}, fmt.Errorf("%w: spreadsheet %s has no worksheets", ErrNoWorksheet, id)
	}
	if title == "" {
		return Ref{SpreadsheetID: id, Title: titles[0]}, nil
	}
	for _, t := range titles {
		if t == title {
			return Ref{SpreadsheetID: id, Title: t}, nil
		}
	}
	return Ref{}, fmt.Errorf("%w: %q", ErrNoWorksheet, title)
}

// Headings returns the values of row 1
func (c *Client) Headings(ctx context.Context, ref Ref) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(ref.SpreadsheetID, ref.rangeOf("1:1")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read headings: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return toStrings(resp.Values[0]), nil
}

// Column returns every value of the 1-based column n, header included.
// Trailing empty cells are not returned by the API.
func (c *Client) Column(ctx context.Context, ref Ref, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrColumnOutRange, n)
	}
	letter := ColumnLetter(n - 1)

	resp, err := c.svc.Spreadsheets.Values.Get(ref.SpreadsheetID, ref.rangeOf(letter+":"+letter)).
		MajorDimension("COLUMNS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read column %s: %w", letter, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	values := toStrings(resp.Values[0])
	slog.Debug("Column read", "worksheet", ref.Title, "column", letter, "values", len(values))
	return values, nil
}

// ReadFrame loads the whole worksheet
func (c *Client) ReadFrame(ctx context.Context, ref Ref) (*Frame, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(ref.SpreadsheetID, ref.rangeOf("")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", ref.Title, err)
	}

	values := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		values = append(values, toStrings(row))
	}
	return NewFrame(values), nil
}

// WriteFrame replaces the worksheet contents from A1 with RAW values
func (c *Client) WriteFrame(ctx context.Context, ref Ref, f *Frame) error {
	values := f.Values()
	rows := make([][]interface{}, 0, len(values))
	for _, row := range values {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v
		}
		rows = append(rows, cells)
	}

	_, err := c.svc.Spreadsheets.Values.Update(ref.SpreadsheetID, ref.rangeOf("A1"), &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write worksheet %q: %w", ref.Title, err)
	}

	slog.Info("Worksheet updated", "worksheet", ref.Title, "rows", len(rows))
	return nil
}

func toStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		out[i] = fmt.Sprint(c)
	}
	return out
}

// ColumnLetter converts a 0-based column position to its A1 letters:
// 0 -> A, 25 -> Z, 26 -> AA.
func ColumnLetter(n int) string {
	if n < 0 {
		return ""
	}
	var letters []byte
	for n >= 0 {
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n = n/26 - 1
	}
	return string(letters)
}
