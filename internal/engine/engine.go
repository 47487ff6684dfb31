package engine

import (
	"sort"

	"github.com/regexvault/regexvault/internal/rules"
)

// Match is a single detected span. Matches are created only by the engine
// and are immutable once produced. Offsets are byte offsets into the
// original UTF-8 text. MatchedText is populated only when the caller asked
// for it and the owning rule's policy allows raw storage.
type Match struct {
	FullID      string         `json:"ns_id"`
	PatternID   string         `json:"pattern_id"`
	Namespace   string         `json:"namespace"`
	Category    rules.Category `json:"category"`
	Start       int            `json:"start"`
	End         int            `json:"end"`
	MatchedText string         `json:"matched_text,omitempty"`
	Mask        string         `json:"mask,omitempty"`
	Severity    rules.Severity `json:"severity"`
}

// FindResult holds all matches for one Find call, sorted by (start, end).
type FindResult struct {
	Text               string
	Matches            []Match
	NamespacesSearched []string
}

// MatchCount returns the number of matches.
func (r *FindResult) MatchCount() int { return len(r.Matches) }

// HasMatches reports whether anything was found.
func (r *FindResult) HasMatches() bool { return len(r.Matches) > 0 }

// ValidationResult reports whether an entire input is an instance of one
// rule's pattern. Match is set only when valid.
type ValidationResult struct {
	Text    string
	FullID  string
	IsValid bool
	Match   *Match
}

// RedactionResult holds the transformed text and the matches that drove it.
type RedactionResult struct {
	OriginalText   string
	RedactedText   string
	Strategy       Strategy
	Matches        []Match
	RedactionCount int
}

// FindOptions adjust one Find call.
type FindOptions struct {
	AllowOverlaps      bool
	IncludeMatchedText bool
}

// Engine runs detection, validation, and redaction against one immutable
// registry snapshot. It holds no mutable state, so a single Engine is safe
// for concurrent use from any number of goroutines.
type Engine struct {
	registry      *rules.Registry
	maskChar      string
	hashAlgorithm string
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaskChar sets the default masking character.
func WithMaskChar(c string) Option {
	return func(e *Engine) {
		if c != "" {
			e.maskChar = c
		}
	}
}

// WithHashAlgorithm selects the digest used by the hash strategy.
func WithHashAlgorithm(algorithm string) Option {
	return func(e *Engine) {
		if algorithm != "" {
			e.hashAlgorithm = algorithm
		}
	}
}

// New creates an engine bound to the given registry snapshot.
func New(registry *rules.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:      registry,
		maskChar:      "*",
		hashAlgorithm: "sha256",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the snapshot this engine reads from.
func (e *Engine) Registry() *rules.Registry { return e.registry }

// Find scans text for every rule in the requested namespaces. A nil
// namespace list searches all registry namespaces. With overlaps
// disallowed, a newly found span is discarded if it intersects any span
// already accepted; acceptance order is namespace order as requested, then
// rule insertion order within the namespace, then left-to-right position.
// The final result is re-sorted by (start, end) regardless of acceptance
// order.
func (e *Engine) Find(text string, namespaces []string, opts FindOptions) *FindResult {
	if namespaces == nil {
		namespaces = e.registry.Namespaces()
	}

	var matches []Match
	for _, ns := range namespaces {
		for _, rule := range e.registry.Namespace(ns) {
			for _, span := range rule.FindIndex(text) {
				start, end := span[0], span[1]
				if !opts.AllowOverlaps && overlapsAny(matches, start, end) {
					continue
				}
				matches = append(matches, newMatch(rule, text, start, end, opts.IncludeMatchedText))
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		return matches[i].End < matches[j].End
	})

	return &FindResult{
		Text:               text,
		Matches:            matches,
		NamespacesSearched: namespaces,
	}
}

// Validate checks whether the entire input matches the identified rule.
// This is stricter than Find on purpose: it answers "is this whole value
// an instance of X", not "does X occur within this text". Returns
// *rules.NotFoundError when the full id is unknown.
func (e *Engine) Validate(text, fullID string) (*ValidationResult, error) {
	rule, ok := e.registry.Get(fullID)
	if !ok {
		return nil, &rules.NotFoundError{FullID: fullID}
	}

	result := &ValidationResult{Text: text, FullID: fullID}
	if rule.FullMatch(text) {
		result.IsValid = true
		match := newMatch(rule, text, 0, len(text), true)
		result.Match = &match
	}
	return result, nil
}

// Redact replaces every match in text according to the strategy.
// Replacements are applied from the highest start offset to the lowest so
// earlier splices never shift the offsets of matches not yet processed;
// replacement text generally differs in length from what it replaces.
func (e *Engine) Redact(text string, namespaces []string, strategy Strategy, allowOverlaps bool) *RedactionResult {
	found := e.Find(text, namespaces, FindOptions{
		AllowOverlaps:      allowOverlaps,
		IncludeMatchedText: true,
	})

	if !found.HasMatches() {
		return &RedactionResult{
			OriginalText: text,
			RedactedText: text,
			Strategy:     strategy,
			Matches:      []Match{},
		}
	}

	redacted := text
	for i := len(found.Matches) - 1; i >= 0; i-- {
		m := found.Matches[i]
		replacement := e.replacement(text[m.Start:m.End], m, strategy)
		redacted = redacted[:m.Start] + replacement + redacted[m.End:]
	}

	return &RedactionResult{
		OriginalText:   text,
		RedactedText:   redacted,
		Strategy:       strategy,
		Matches:        found.Matches,
		RedactionCount: len(found.Matches),
	}
}

// newMatch builds a Match for the rule over text[start:end]. The raw
// substring is attached only when requested and the rule's policy permits.
func newMatch(rule *rules.Rule, text string, start, end int, includeText bool) Match {
	m := Match{
		FullID:    rule.FullID(),
		PatternID: rule.ID,
		Namespace: rule.Namespace,
		Category:  rule.Category,
		Start:     start,
		End:       end,
		Mask:      rule.Mask,
		Severity:  rule.Policy.Severity,
	}
	if includeText && rule.Policy.StoreRaw {
		m.MatchedText = text[start:end]
	}
	return m
}

// overlapsAny reports whether [start, end) intersects any accepted span.
func overlapsAny(matches []Match, start, end int) bool {
	for _, m := range matches {
		if start < m.End && m.Start < end {
			return true
		}
	}
	return false
}
