// Package password scores candidate passwords against a weighted rule set,
// maps scores to strength tiers and generates compliant random passwords.
//
// A Policy is immutable after New returns and is safe for concurrent use.
package password

import (
	"crypto/rand"
	"io"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// MaxScore is the top of the normalized strength scale.
	MaxScore = 4
	// MinValidScore is the lowest normalized score a valid password may have.
	MinValidScore = 2

	commonPenalty = 1.0

	MsgTooCommon = "Password is too common"
	MsgTooShort  = "Password is too short"

	SuggestLettersAndDigits = "Use a combination of letters and digits"
	SuggestSymbols          = "Add special characters for extra security"
	SuggestLonger           = "Consider using a longer password"
)

// ValidationResult is the outcome of a single evaluation.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Score       int      `json:"score"`
	Errors      []string `json:"errors"`
	Suggestions []string `json:"suggestions"`
}

type Policy struct {
	rules     []Rule
	maxWeight float64
	denylist  map[string]struct{}
	random    io.Reader
	// minValid is the shortest length the rules accept, 0 if none up to
	// maxAcceptLength.
	minValid int
}

type Option func(*options)

type options struct {
	rules  []Rule
	extra  []string
	random io.Reader
}

// WithRules replaces the default rule set.
func WithRules(rules ...Rule) Option {
	return func(o *options) {
		o.rules = rules
	}
}

// WithDenylist adds entries to the built-in denylist.
func WithDenylist(entries ...string) Option {
	return func(o *options) {
		o.extra = append(o.extra, entries...)
	}
}

// WithRandom sets the randomness source used by Generate. Defaults to crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		o.random = r
	}
}

// New builds a policy. The normalization weight is derived from the rules
// so the two can never drift apart.
func New(opts ...Option) *Policy {
	o := options{
		rules:  DefaultRules(),
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rules := make([]Rule, len(o.rules))
	copy(rules, o.rules)

	var total float64
	for _, r := range rules {
		total += r.Weight
	}

	p := &Policy{
		rules:     rules,
		maxWeight: total,
		denylist:  buildDenylist(o.extra),
		random:    o.random,
	}
	p.minValid = p.shortestAcceptedLength()
	return p
}

var defaultPolicy = New()

// Default returns the shared policy built from the default rules and denylist.
func Default() *Policy {
	return defaultPolicy
}

// Rules returns a copy of the policy's rules.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// TotalWeight is the sum of all rule weights (6.5 for the default rules).
func (p *Policy) TotalWeight() float64 {
	return p.maxWeight
}

// IsCommon reports whether password is on the denylist, ignoring case.
func (p *Policy) IsCommon(password string) bool {
	_, ok := p.denylist[strings.ToLower(password)]
	return ok
}

// Evaluate scores password and collects failed-rule messages and
// improvement hints. It never fails.
func (p *Policy) Evaluate(password string) ValidationResult {
	var score float64
	errs := make([]string, 0)
	suggestions := make([]string, 0)

	for _, r := range p.rules {
		if r.Check(password) {
			score += r.Weight
		} else {
			errs = append(errs, r.Message)
		}
	}

	if p.IsCommon(password) {
		errs = append(errs, MsgTooCommon)
		score -= commonPenalty
	}

	length := utf8.RuneCountInString(password)
	if length < TooShortLength {
		errs = append(errs, MsgTooShort)
	}

	if !hasLetter(password) || !hasDigit(password) {
		suggestions = append(suggestions, SuggestLettersAndDigits)
	}
	if !hasSymbol(password) {
		suggestions = append(suggestions, SuggestSymbols)
	}
	if length < RecommendedLength {
		suggestions = append(suggestions, SuggestLonger)
	}

	normalized := normalize(score, p.maxWeight)

	return ValidationResult{
		IsValid:     len(errs) == 0 && normalized >= MinValidScore,
		Score:       normalized,
		Errors:      errs,
		Suggestions: suggestions,
	}
}

// normalize maps a raw weighted score onto 0..MaxScore, rounding half up.
func normalize(score, total float64) int {
	if total <= 0 {
		return 0
	}
	n := int(math.Floor(score/total*MaxScore + 0.5))
	switch {
	case n < 0:
		return 0
	case n > MaxScore:
		return MaxScore
	}
	return n
}

// Evaluate scores password with the default policy.
func Evaluate(password string) ValidationResult {
	return defaultPolicy.Evaluate(password)
}

// IsCommon checks password against the default denylist.
func IsCommon(password string) bool {
	return defaultPolicy.IsCommon(password)
}
