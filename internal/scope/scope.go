// Package scope narrows a candidate pool to the names that share a
// "significant substring" with the target, e.g. the same accession prefix.
package scope

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SummittDweller/cb-file-finder/internal/candidates"
)

// Pattern extracts a significant substring from a name.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// CompilePattern compiles a user supplied pattern. A pattern without a
// group is wrapped in one; an empty pattern yields a nil *Pattern, which
// disables narrowing.
func CompilePattern(raw string) (*Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	expr := raw
	if !strings.Contains(raw, "(") {
		expr = "(" + raw + ")"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile significant pattern %q: %w", raw, err)
	}

	return &Pattern{raw: raw, re: re}, nil
}

// String returns the pattern as the user supplied it
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.raw
}

// Extract returns the first capture group of the pattern in name.
// Patterns with only non-capturing groups fall back to the whole match.
func (p *Pattern) Extract(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	m := p.re.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}

// Scope is the slice of the pool searched for one target.
// Ids are dense: Filenames[id] and Directories[id] describe candidate id,
// and Index[id] is its position in the original pool.
type Scope struct {
	Substring   string
	Matched     bool
	Filenames   []string
	Directories []string
	Index       []int
}

// Len returns the number of candidates in scope
func (s Scope) Len() int {
	return len(s.Filenames)
}

// Narrow restricts pool to the candidates whose significant substring equals
// the target's. Without a pattern, or when the target has no significant
// substring, the full pool is returned with an identity index.
func Narrow(p *Pattern, target string, pool *candidates.Pool) Scope {
	substring, ok := p.Extract(target)
	if !ok {
		return full(pool)
	}

	s := Scope{
		Substring: substring,
		Matched:   true,
	}
	for i, name := range pool.Filenames {
		got, ok := p.Extract(name)
		if !ok || got != substring {
			continue
		}
		s.Filenames = append(s.Filenames, name)
		s.Directories = append(s.Directories, pool.Directories[i])
		s.Index = append(s.Index, i)
	}

	return s
}

func full(pool *candidates.Pool) Scope {
	index := make([]int, pool.Len())
	for i := range index {
		index[i] = i
	}
	return Scope{
		Filenames:   pool.Filenames,
		Directories: pool.Directories,
		Index:       index,
	}
}
