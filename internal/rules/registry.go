package rules

import (
	"go.uber.org/zap"
)

// Registry is an indexed, versioned collection of compiled rules, keyed by
// full namespace/id and by namespace. It is populated by load passes and
// must not be mutated once published to readers; a reload builds a fresh
// Registry off to the side and swaps it in wholesale.
type Registry struct {
	rules      map[string]*Rule   // full_id -> rule
	namespaces map[string][]*Rule // namespace -> rules in insertion order
	order      []string           // namespace names, first-seen order
	version    int64
	logger     *zap.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		rules:      make(map[string]*Rule),
		namespaces: make(map[string][]*Rule),
		logger:     logger,
	}
}

// Add inserts the rule, overwriting any rule with the same full id.
// Overwrites keep the rule's original position in the namespace index so
// match priority is stable, and are logged as warnings rather than
// rejected. Every successful add increments the registry version.
func (r *Registry) Add(rule *Rule) {
	fullID := rule.FullID()

	if _, exists := r.rules[fullID]; exists {
		r.logger.Warn("pattern already exists, overwriting",
			zap.String("pattern", fullID),
		)
		existing := r.namespaces[rule.Namespace]
		for i, candidate := range existing {
			if candidate.FullID() == fullID {
				existing[i] = rule
				break
			}
		}
	} else {
		if _, seen := r.namespaces[rule.Namespace]; !seen {
			r.order = append(r.order, rule.Namespace)
		}
		r.namespaces[rule.Namespace] = append(r.namespaces[rule.Namespace], rule)
	}

	r.rules[fullID] = rule
	r.version++
}

// Get returns the rule registered under the full namespace/id key.
func (r *Registry) Get(fullID string) (*Rule, bool) {
	rule, ok := r.rules[fullID]
	return rule, ok
}

// Namespace returns the namespace's rules in the order they were added.
// Insertion order defines match priority; callers must not modify the
// returned slice.
func (r *Registry) Namespace(namespace string) []*Rule {
	return r.namespaces[namespace]
}

// Namespaces returns all namespace names in first-seen order.
func (r *Registry) Namespaces() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every rule, grouped by namespace in first-seen order.
func (r *Registry) All() []*Rule {
	out := make([]*Rule, 0, len(r.rules))
	for _, ns := range r.order {
		out = append(out, r.namespaces[ns]...)
	}
	return out
}

// Len returns the number of rules in the registry.
func (r *Registry) Len() int {
	return len(r.rules)
}

// Version returns the monotonically increasing load-generation counter.
func (r *Registry) Version() int64 {
	return r.version
}
