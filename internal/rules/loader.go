package rules

import (
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadOptions control schema and example validation during LoadAll.
type LoadOptions struct {
	SchemaPath       string
	ValidateSchema   bool
	ValidateExamples bool
}

// DefaultLoadOptions enables both validation passes without a schema file.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		ValidateSchema:   true,
		ValidateExamples: true,
	}
}

// LoadAll reads every rule file into a fresh registry. Missing files are
// skipped with a warning. A schema, compile, or example failure aborts the
// call; sources loaded before the failure remain in the returned registry,
// so callers deciding whether to publish must check the error first.
func LoadAll(paths []string, opts LoadOptions, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewRegistry(logger)

	var schema *jsonschema.Schema
	if opts.ValidateSchema && opts.SchemaPath != "" {
		compiled, err := jsonschema.Compile(opts.SchemaPath)
		if err != nil {
			logger.Warn("pattern schema not usable, skipping schema validation",
				zap.String("schema", opts.SchemaPath),
				zap.Error(err),
			)
		} else {
			schema = compiled
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			logger.Warn("pattern file not found, skipping", zap.String("path", path))
			continue
		}

		logger.Info("loading patterns", zap.String("path", path))
		if err := loadFile(registry, path, schema, opts.ValidateExamples, logger); err != nil {
			return registry, err
		}
	}

	logger.Info("patterns loaded",
		zap.Int("patterns", registry.Len()),
		zap.Int("namespaces", len(registry.Namespaces())),
	)
	return registry, nil
}

// loadFile parses, validates, and compiles one rule document, adding every
// rule into the registry. Any failure aborts the file.
func loadFile(registry *Registry, path string, schema *jsonschema.Schema, validateExamples bool, logger *zap.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pattern file %s: %w", path, err)
	}

	if schema != nil {
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to parse pattern file %s: %w", path, err)
		}
		if err := schema.Validate(doc); err != nil {
			return &SchemaError{Path: path, Err: err}
		}
	}

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse pattern file %s: %w", path, err)
	}
	if file.Namespace == "" {
		return fmt.Errorf("pattern file %s: missing namespace", path)
	}

	for _, def := range file.Patterns {
		rule, err := Compile(file.Namespace, def)
		if err != nil {
			return err
		}
		if validateExamples {
			if err := rule.ValidateExamples(); err != nil {
				return err
			}
		}

		// Convention, not enforcement: critical rules should never allow
		// raw matched text to surface.
		if rule.Policy.Severity == SeverityCritical && rule.Policy.StoreRaw {
			logger.Warn("critical pattern allows raw storage",
				zap.String("pattern", rule.FullID()),
			)
		}

		registry.Add(rule)
	}
	return nil
}
