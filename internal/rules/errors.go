package rules

import (
	"fmt"
	"strings"
)

// CompileError reports a pattern whose regex source failed to compile.
// It is fatal to the load of the file that contains the pattern.
type CompileError struct {
	FullID string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile pattern %s: %v", e.FullID, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// ExampleError reports examples that contradict the compiled pattern.
// Violations lists every offending example, not just the first.
type ExampleError struct {
	FullID     string
	Violations []string
}

func (e *ExampleError) Error() string {
	return fmt.Sprintf("pattern %s example validation failed: %s",
		e.FullID, strings.Join(e.Violations, "; "))
}

// SchemaError reports a rule document that failed structural validation.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("pattern file %s failed schema validation: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// NotFoundError reports a lookup for an unknown namespace/id.
type NotFoundError struct {
	FullID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pattern not found: %s", e.FullID)
}
