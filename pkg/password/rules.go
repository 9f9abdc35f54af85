package password

import (
	"strings"
	"unicode/utf8"
)

// Rule is a weighted predicate over a candidate password. A failing rule
// contributes its Message to the evaluation errors.
type Rule struct {
	Name    string
	Message string
	Weight  float64
	Check   func(password string) bool
}

const (
	MinLength         = 8
	RecommendedLength = 12
	// TooShortLength triggers the extra "too short" error on top of the
	// min_length rule failure.
	TooShortLength = 6

	symbolChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

var weakSequences = []string{"123", "abc", "qwe", "password", "admin"}

// DefaultRules returns the built-in rule set in display order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "min_length",
			Message: "At least 8 characters",
			Weight:  1,
			Check:   func(s string) bool { return utf8.RuneCountInString(s) >= MinLength },
		},
		{
			Name:    "recommended_length",
			Message: "12 or more characters recommended",
			Weight:  0.5,
			Check:   func(s string) bool { return utf8.RuneCountInString(s) >= RecommendedLength },
		},
		{
			Name:    "lowercase",
			Message: "Lowercase letters (a-z)",
			Weight:  1,
			Check:   hasLower,
		},
		{
			Name:    "uppercase",
			Message: "Uppercase letters (A-Z)",
			Weight:  1,
			Check:   hasUpper,
		},
		{
			Name:    "digit",
			Message: "Digits (0-9)",
			Weight:  1,
			Check:   hasDigit,
		},
		{
			Name:    "symbol",
			Message: "Special characters (!@#$%^&*)",
			Weight:  1,
			Check:   hasSymbol,
		},
		{
			// Absence rules give no credit to an empty password.
			Name:    "no_repeats",
			Message: "No runs of repeated characters",
			Weight:  0.5,
			Check:   func(s string) bool { return s != "" && !hasRepeatRun(s, 3) },
		},
		{
			Name:    "no_sequences",
			Message: "No simple sequences",
			Weight:  0.5,
			Check:   func(s string) bool { return s != "" && !hasWeakSequence(s) },
		},
	}
}

func hasLower(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= 'a' && r <= 'z' }) >= 0
}

func hasUpper(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}

func hasLetter(s string) bool {
	return hasLower(s) || hasUpper(s)
}

func hasSymbol(s string) bool {
	return strings.ContainsAny(s, symbolChars)
}

// hasRepeatRun reports whether s contains n or more identical consecutive
// runes. Line terminators never form or extend a run.
func hasRepeatRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		switch {
		case isLineTerminator(r):
			run = 0
		case run > 0 && r == prev:
			run++
		default:
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

func hasWeakSequence(s string) bool {
	lower := strings.ToLower(s)
	for _, seq := range weakSequences {
		if strings.Contains(lower, seq) {
			return true
		}
	}
	return false
}
