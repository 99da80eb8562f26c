package results

import "github.com/SummittDweller/cb-file-finder/internal/policy"

// Match is one ranked candidate for a target
type Match struct {
	Score int
	Name  string
	Path  string
}

// Row is the reconciliation outcome for one worksheet row.
// Matches holds up to three ranked candidates, best first.
type Row struct {
	Index      int
	Target     string
	Pattern    string
	Matches    []Match
	Transcript string
}

// Best returns the top ranked match
func (r Row) Best() (Match, bool) {
	if len(r.Matches) == 0 {
		return Match{}, false
	}
	return r.Matches[0], true
}

// FinalScore is the best match's score after the numeric tie-break. Rows
// keep the raw score; tiers and acceptance use this one.
func (r Row) FinalScore() (int, bool) {
	best, ok := r.Best()
	if !ok {
		return 0, false
	}
	return policy.TieBreak(r.Target, best.Name, best.Score), true
}

// Table accumulates rows in worksheet order
type Table struct {
	Rows []Row
}

// Append adds a row
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}
