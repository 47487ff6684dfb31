package rules

import (
	"fmt"
	"regexp"
)

// Category classifies the kind of PII a rule detects.
type Category string

const (
	CategoryPhone      Category = "phone"
	CategorySSN        Category = "ssn"
	CategoryRRN        Category = "rrn"
	CategoryEmail      Category = "email"
	CategoryBank       Category = "bank"
	CategoryPassport   Category = "passport"
	CategoryAddress    Category = "address"
	CategoryCreditCard Category = "credit_card"
	CategoryIP         Category = "ip"
	CategoryOther      Category = "other"
)

// ParseCategory returns the Category for s, rejecting unknown values.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryPhone, CategorySSN, CategoryRRN, CategoryEmail, CategoryBank,
		CategoryPassport, CategoryAddress, CategoryCreditCard, CategoryIP, CategoryOther:
		return c, nil
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// ActionOnMatch is the default handling for a rule's matches.
type ActionOnMatch string

const (
	ActionRedact   ActionOnMatch = "redact"
	ActionReport   ActionOnMatch = "report"
	ActionTokenize ActionOnMatch = "tokenize"
	ActionIgnore   ActionOnMatch = "ignore"
)

// ParseAction returns the ActionOnMatch for s, rejecting unknown values.
func ParseAction(s string) (ActionOnMatch, error) {
	switch a := ActionOnMatch(s); a {
	case ActionRedact, ActionReport, ActionTokenize, ActionIgnore:
		return a, nil
	}
	return "", fmt.Errorf("unknown action_on_match: %q", s)
}

// Severity ranks how sensitive a rule's matches are.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity returns the Severity for s, rejecting unknown values.
func ParseSeverity(s string) (Severity, error) {
	switch sv := Severity(s); sv {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sv, nil
	}
	return "", fmt.Errorf("unknown severity: %q", s)
}

// Policy governs disclosure of raw matched text and default handling.
type Policy struct {
	StoreRaw      bool          `json:"store_raw"`
	ActionOnMatch ActionOnMatch `json:"action_on_match"`
	Severity      Severity      `json:"severity"`
}

// DefaultPolicy returns the policy applied when a rule defines none.
func DefaultPolicy() Policy {
	return Policy{
		StoreRaw:      false,
		ActionOnMatch: ActionRedact,
		Severity:      SeverityMedium,
	}
}

// Examples are strings a pattern must and must not fully match.
type Examples struct {
	Match   []string `yaml:"match"`
	NoMatch []string `yaml:"nomatch"`
}

// Rule is a compiled pattern definition. Rules are immutable once built
// by Compile and safe for concurrent use.
type Rule struct {
	ID          string
	Namespace   string
	Location    string
	Category    Category
	Pattern     string
	Description string
	Flags       []string
	Mask        string
	Examples    *Examples
	Policy      Policy
	Metadata    map[string]any

	re       *regexp.Regexp // search form
	anchored *regexp.Regexp // full-string form, used by validate and example checks
}

// FullID returns the namespace/id key the rule is registered under.
func (r *Rule) FullID() string {
	return r.Namespace + "/" + r.ID
}

// FindIndex returns every non-overlapping occurrence in text as
// [start, end) byte offset pairs, leftmost first.
func (r *Rule) FindIndex(text string) [][]int {
	return r.re.FindAllStringIndex(text, -1)
}

// FullMatch reports whether the entire input matches the pattern.
func (r *Rule) FullMatch(s string) bool {
	return r.anchored.MatchString(s)
}

// File is one rule-definition document: a namespace with an ordered
// list of raw pattern entries.
type File struct {
	Namespace string       `yaml:"namespace"`
	Patterns  []Definition `yaml:"patterns"`
}

// Definition is one raw pattern entry as it appears in a rule file.
type Definition struct {
	ID          string         `yaml:"id"`
	Location    string         `yaml:"location"`
	Category    string         `yaml:"category"`
	Pattern     string         `yaml:"pattern"`
	Description string         `yaml:"description"`
	Flags       []string       `yaml:"flags"`
	Mask        string         `yaml:"mask"`
	Examples    *Examples      `yaml:"examples"`
	Policy      *PolicyDef     `yaml:"policy"`
	Metadata    map[string]any `yaml:"metadata"`
}

// PolicyDef is the raw policy block; nil fields fall back to defaults.
type PolicyDef struct {
	StoreRaw      *bool  `yaml:"store_raw"`
	ActionOnMatch string `yaml:"action_on_match"`
	Severity      string `yaml:"severity"`
}
