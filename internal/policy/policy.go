package policy

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Mode is the category a matched file is being classified as
type Mode string

const (
	ModeObject     Mode = "OBJ"
	ModeThumbnail  Mode = "TN"
	ModeSmall      Mode = "JPG"
	ModeTranscript Mode = "TRANSCRIPT"
)

// ParseMode converts a string to a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModeObject, ModeThumbnail, ModeSmall, ModeTranscript:
		return m, nil
	case "":
		return ModeObject, nil
	default:
		return "", fmt.Errorf("unknown mode: %s", s)
	}
}

const (
	// AcceptThreshold is the lowest final score that may lead to a storage action.
	AcceptThreshold = 90
	// TieBreakFloor is the raw score a match must exceed before catalog numbers are compared.
	TieBreakFloor = 49
	// TieBreakScore is the final score forced by an exact catalog number match.
	TieBreakScore = 95
)

var (
	ErrInsufficientScore = errors.New("insufficient match score")
	ErrModeMismatch      = errors.New("filename suffix does not agree with mode")
)

// any prefix, a dash or underscore, a run of digits, any suffix
var numericPart = regexp.MustCompile(`^.*[-_](\d+).*$`)

// NumericPart returns the digit run following the last "-" or "_" that is
// followed by digits.
func NumericPart(name string) (string, bool) {
	m := numericPart.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// TieBreak forces TieBreakScore when score exceeds TieBreakFloor and both
// names carry the same catalog number.
func TieBreak(target, candidate string, score int) int {
	if score <= TieBreakFloor {
		return score
	}
	tn, ok := NumericPart(target)
	if !ok {
		return score
	}
	cn, ok := NumericPart(candidate)
	if !ok || tn != cn {
		return score
	}
	return TieBreakScore
}

// Accept applies the tie-break, the acceptance threshold and the mode checks.
// The final score is returned even when the match is rejected.
func Accept(target string, rawScore int, candidate string, mode Mode) (int, error) {
	final := TieBreak(target, candidate, rawScore)

	if final < AcceptThreshold {
		return final, fmt.Errorf("%w: best match for '%s' scored %d", ErrInsufficientScore, target, final)
	}

	if err := CheckMode(candidate, mode); err != nil {
		return final, err
	}

	return final, nil
}

// CheckMode rejects names whose _TN. / _JPG. / _OBJ. infix disagrees with mode
func CheckMode(candidate string, mode Mode) error {
	switch {
	case strings.Contains(candidate, "_TN.") && mode != ModeThumbnail:
		return fmt.Errorf("%w: _TN in '%s' and mode '%s'", ErrModeMismatch, candidate, mode)
	case strings.Contains(candidate, "_JPG.") && mode != ModeSmall:
		return fmt.Errorf("%w: _JPG in '%s' and mode '%s'", ErrModeMismatch, candidate, mode)
	case strings.Contains(candidate, "_OBJ.") && mode != ModeObject:
		return fmt.Errorf("%w: _OBJ in '%s' and mode '%s'", ErrModeMismatch, candidate, mode)
	}
	return nil
}
