package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// flagLetters maps the named flags rule files may carry to RE2 inline flag
// letters. UNICODE maps to nothing because RE2 is always Unicode-aware;
// VERBOSE has no RE2 equivalent and is dropped. Names not listed here are
// silently ignored.
var flagLetters = map[string]string{
	"IGNORECASE": "i",
	"MULTILINE":  "m",
	"DOTALL":     "s",
	"UNICODE":    "",
	"VERBOSE":    "",
}

// inlineFlags builds an RE2 inline flag group like "(?im)" from a list of
// named flags. Returns the empty string when no flag applies.
func inlineFlags(names []string) string {
	var letters strings.Builder
	seen := make(map[string]bool)
	for _, name := range names {
		letter := flagLetters[strings.ToUpper(name)]
		if letter == "" || seen[letter] {
			continue
		}
		seen[letter] = true
		letters.WriteString(letter)
	}
	if letters.Len() == 0 {
		return ""
	}
	return "(?" + letters.String() + ")"
}

// Compile turns one raw definition into an immutable Rule. It validates
// identity fields, resolves flags, compiles both the search and the
// anchored full-string forms, and parses the policy block. It never
// touches a registry.
func Compile(namespace string, def Definition) (*Rule, error) {
	if namespace == "" {
		return nil, fmt.Errorf("pattern %q has no namespace", def.ID)
	}
	if def.ID == "" {
		return nil, fmt.Errorf("pattern in namespace %q has no id", namespace)
	}
	fullID := namespace + "/" + def.ID

	if n := len(def.Location); n < 2 || n > 4 {
		return nil, fmt.Errorf("pattern %s: location must be a 2-4 character code, got %q", fullID, def.Location)
	}
	category, err := ParseCategory(def.Category)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", fullID, err)
	}
	if def.Pattern == "" {
		return nil, fmt.Errorf("pattern %s: empty pattern source", fullID)
	}

	src := inlineFlags(def.Flags) + def.Pattern
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, &CompileError{FullID: fullID, Err: err}
	}
	anchored, err := regexp.Compile(`\A(?:` + src + `)\z`)
	if err != nil {
		return nil, &CompileError{FullID: fullID, Err: err}
	}

	policy := DefaultPolicy()
	if def.Policy != nil {
		if def.Policy.StoreRaw != nil {
			policy.StoreRaw = *def.Policy.StoreRaw
		}
		if def.Policy.ActionOnMatch != "" {
			action, err := ParseAction(def.Policy.ActionOnMatch)
			if err != nil {
				return nil, fmt.Errorf("pattern %s: %w", fullID, err)
			}
			policy.ActionOnMatch = action
		}
		if def.Policy.Severity != "" {
			severity, err := ParseSeverity(def.Policy.Severity)
			if err != nil {
				return nil, fmt.Errorf("pattern %s: %w", fullID, err)
			}
			policy.Severity = severity
		}
	}

	return &Rule{
		ID:          def.ID,
		Namespace:   namespace,
		Location:    def.Location,
		Category:    category,
		Pattern:     def.Pattern,
		Description: def.Description,
		Flags:       def.Flags,
		Mask:        def.Mask,
		Examples:    def.Examples,
		Policy:      policy,
		Metadata:    def.Metadata,
		re:          re,
		anchored:    anchored,
	}, nil
}

// ValidateExamples checks the rule's stated examples against the compiled
// pattern: every match example must fully match, every nomatch example
// must not. All violations are reported together.
func (r *Rule) ValidateExamples() error {
	if r.Examples == nil {
		return nil
	}

	var violations []string
	for _, example := range r.Examples.Match {
		if !r.FullMatch(example) {
			violations = append(violations, fmt.Sprintf("example should match but doesn't: %q", example))
		}
	}
	for _, example := range r.Examples.NoMatch {
		if r.FullMatch(example) {
			violations = append(violations, fmt.Sprintf("example should NOT match but does: %q", example))
		}
	}

	if len(violations) > 0 {
		return &ExampleError{FullID: r.FullID(), Violations: violations}
	}
	return nil
}
