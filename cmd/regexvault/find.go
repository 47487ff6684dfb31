package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/regexvault/regexvault/internal/engine"
)

var (
	findText        string
	findFile        string
	findNamespaces  []string
	findPatterns    []string
	findOutput      string
	findIncludeText bool
	findOverlaps    bool
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Scan text for personal information",
	Long: `Scan text for personal information using the loaded pattern registry.

Text comes from --text or --file. Namespaces restrict the search; when
none are given every loaded namespace is searched.`,
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVarP(&findText, "text", "t", "", "text to scan")
	findCmd.Flags().StringVarP(&findFile, "file", "f", "", "file to scan")
	findCmd.Flags().StringSliceVarP(&findNamespaces, "namespace", "n", nil, "namespaces to search (default: all)")
	findCmd.Flags().StringSliceVarP(&findPatterns, "patterns", "p", nil, "pattern files to load (default: configured catalogs)")
	findCmd.Flags().StringVarP(&findOutput, "output", "o", "text", "output format: text or json")
	findCmd.Flags().BoolVar(&findIncludeText, "include-text", false, "include matched substrings (subject to each rule's policy)")
	findCmd.Flags().BoolVar(&findOverlaps, "allow-overlaps", false, "report overlapping spans instead of keeping the first accepted")
}

func runFind(cmd *cobra.Command, args []string) error {
	text, err := readInput(findText, findFile)
	if err != nil {
		return err
	}

	eng, err := loadEngine(findPatterns)
	if err != nil {
		return err
	}

	result := eng.Find(text, findNamespaces, engine.FindOptions{
		AllowOverlaps:      findOverlaps,
		IncludeMatchedText: findIncludeText,
	})

	if findOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Matches            []engine.Match `json:"matches"`
			Count              int            `json:"count"`
			NamespacesSearched []string       `json:"namespaces_searched"`
		}{result.Matches, result.MatchCount(), result.NamespacesSearched})
	}

	if !result.HasMatches() {
		fmt.Println("No matches found")
		return nil
	}

	fmt.Printf("Found %d match(es):\n", result.MatchCount())
	for _, m := range result.Matches {
		line := fmt.Sprintf("  %s (%s) at %d-%d [%s]", m.FullID, m.Category, m.Start, m.End, m.Severity)
		if m.MatchedText != "" {
			line += fmt.Sprintf(": %q", m.MatchedText)
		}
		fmt.Println(line)
	}
	return nil
}
