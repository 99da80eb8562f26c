// Package fuzzy ranks candidate names by approximate similarity to a target.
//
// Scores are integers in 0..100 derived from the insert/delete (LCS) edit
// distance between case-folded names whose non-alphanumeric runs have been
// collapsed to single spaces. The weighted ratio takes the best of the plain
// ratio and the token-sort and token-set ratios, the latter two scaled by 0.95
// so a reordering never outranks an exact spelling.
package fuzzy

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/cases"
)

// DefaultLimit is the number of ranked matches kept per target.
const DefaultLimit = 3

const tokenScale = 0.95

var nonAlphanumeric = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Result is one ranked candidate
type Result struct {
	ID    int
	Name  string
	Score int
	exact bool
}

// Process folds case and replaces non-alphanumeric runs with a single space
func Process(s string) string {
	folded := cases.Fold().String(s)
	return strings.TrimSpace(nonAlphanumeric.ReplaceAllString(folded, " "))
}

// Ratio scores two already processed strings
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	distance := edlib.LCSEditDistance(a, b)
	return int(math.Round(100 * float64(total-distance) / float64(total)))
}

// WRatio scores two raw names
func WRatio(a, b string) int {
	if a != "" && a == b {
		return 100
	}
	return newScorer(a).score(b)
}

// Extract ranks names against target and returns at most limit results by
// descending score. Ties prefer a case-sensitive exact match, then the lower id.
// An empty target yields no results.
func Extract(target string, names []string, limit int) []Result {
	if target == "" || len(names) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	s := newScorer(target)
	results := make([]Result, len(names))
	for id, name := range names {
		exact := name == target
		score := 100
		if !exact {
			score = s.score(name)
		}
		results[id] = Result{ID: id, Name: name, Score: score, exact: exact}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].exact != results[j].exact {
			return results[i].exact
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// scorer caches the processed form of the target across candidates.
type scorer struct {
	processed string
	sorted    string
	tokens    map[string]struct{}
}

func newScorer(target string) *scorer {
	processed := Process(target)
	tokens := strings.Fields(processed)
	return &scorer{
		processed: processed,
		sorted:    sortedJoin(tokens),
		tokens:    tokenSet(tokens),
	}
}

func (s *scorer) score(candidate string) int {
	processed := Process(candidate)
	if s.processed == "" || processed == "" {
		return 0
	}

	best := Ratio(s.processed, processed)
	if best == 100 {
		return best
	}

	tokens := strings.Fields(processed)
	if v := scaled(Ratio(s.sorted, sortedJoin(tokens))); v > best {
		best = v
	}
	if v := scaled(s.tokenSetRatio(tokenSet(tokens))); v > best {
		best = v
	}
	return best
}

func (s *scorer) tokenSetRatio(other map[string]struct{}) int {
	var common, onlyTarget, onlyCandidate []string
	for t := range s.tokens {
		if _, ok := other[t]; ok {
			common = append(common, t)
		} else {
			onlyTarget = append(onlyTarget, t)
		}
	}
	for t := range other {
		if _, ok := s.tokens[t]; !ok {
			onlyCandidate = append(onlyCandidate, t)
		}
	}

	sect := sortedJoin(common)
	combinedTarget := strings.TrimSpace(sect + " " + sortedJoin(onlyTarget))
	combinedCandidate := strings.TrimSpace(sect + " " + sortedJoin(onlyCandidate))

	best := Ratio(combinedTarget, combinedCandidate)
	if v := Ratio(sect, combinedTarget); v > best {
		best = v
	}
	if v := Ratio(sect, combinedCandidate); v > best {
		best = v
	}
	return best
}

func scaled(score int) int {
	return int(math.Round(float64(score) * tokenScale))
}

func sortedJoin(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
