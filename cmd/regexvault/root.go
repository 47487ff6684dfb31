package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/regexvault/regexvault/internal/config"
	"github.com/regexvault/regexvault/internal/engine"
	"github.com/regexvault/regexvault/internal/logger"
	"github.com/regexvault/regexvault/internal/rules"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "regexvault",
	Short:         "Detect, validate, and redact personal information in text",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(findCmd, validateCmd, redactCmd, patternsCmd, serveCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliLogger builds the console logger CLI commands share.
func cliLogger() (*logger.Logger, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Format: "console"})
}

// loadEngine loads pattern files (defaults when none are given) and
// returns an engine over the resulting registry.
func loadEngine(patternPaths []string) (*engine.Engine, error) {
	log, err := cliLogger()
	if err != nil {
		return nil, err
	}

	defaults := config.GetDefaults()
	paths := patternPaths
	if len(paths) == 0 {
		paths = defaults.Registry.Paths
	}

	registry, err := rules.LoadAll(paths, rules.LoadOptions{
		SchemaPath:       defaults.Registry.SchemaPath,
		ValidateSchema:   true,
		ValidateExamples: true,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	return engine.New(registry,
		engine.WithMaskChar(defaults.Redaction.MaskChar),
		engine.WithHashAlgorithm(defaults.Redaction.HashAlgorithm),
	), nil
}

// readInput resolves the text to operate on from --text or a file flag.
func readInput(text, file string) (string, error) {
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	if text != "" {
		return text, nil
	}
	return "", fmt.Errorf("must provide --text or a file input")
}
