package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/regexvault/regexvault/internal/engine"
)

var (
	redactText       string
	redactIn         string
	redactOut        string
	redactNamespaces []string
	redactPatterns   []string
	redactStrategy   string
	redactStats      bool
)

var redactCmd = &cobra.Command{
	Use:   "redact",
	Short: "Replace personal information in text",
	Long: `Replace every detected span in the input according to a strategy:

  mask      replace with the rule's mask, or repeat the mask character
  hash      replace with a digest token, [HASH:...]
  tokenize  replace with a positional token, [TOKEN:ns/id:start]

Text comes from --text or --in; the result goes to stdout or --out.`,
	RunE: runRedact,
}

func init() {
	redactCmd.Flags().StringVarP(&redactText, "text", "t", "", "text to redact")
	redactCmd.Flags().StringVar(&redactIn, "in", "", "input file")
	redactCmd.Flags().StringVar(&redactOut, "out", "", "output file (default: stdout)")
	redactCmd.Flags().StringSliceVarP(&redactNamespaces, "namespace", "n", nil, "namespaces to search (default: all)")
	redactCmd.Flags().StringSliceVarP(&redactPatterns, "patterns", "p", nil, "pattern files to load (default: configured catalogs)")
	redactCmd.Flags().StringVarP(&redactStrategy, "strategy", "s", "mask", "redaction strategy: mask, hash, or tokenize")
	redactCmd.Flags().BoolVar(&redactStats, "stats", false, "print redaction statistics to stderr")
}

func runRedact(cmd *cobra.Command, args []string) error {
	text, err := readInput(redactText, redactIn)
	if err != nil {
		return err
	}

	strategy, err := engine.ParseStrategy(redactStrategy)
	if err != nil {
		return err
	}

	eng, err := loadEngine(redactPatterns)
	if err != nil {
		return err
	}

	result := eng.Redact(text, redactNamespaces, strategy, false)

	if redactOut != "" {
		if err := os.WriteFile(redactOut, []byte(result.RedactedText), 0644); err != nil {
			return err
		}
	} else {
		fmt.Println(result.RedactedText)
	}

	if redactStats {
		fmt.Fprintf(os.Stderr, "redacted %d span(s) using %s\n", result.RedactionCount, result.Strategy)
		counts := make(map[string]int)
		var order []string
		for _, m := range result.Matches {
			if counts[m.FullID] == 0 {
				order = append(order, m.FullID)
			}
			counts[m.FullID]++
		}
		for _, id := range order {
			fmt.Fprintf(os.Stderr, "  %s: %d\n", id, counts[id])
		}
	}
	return nil
}
