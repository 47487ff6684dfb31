package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validatePatterns []string

var validateCmd = &cobra.Command{
	Use:   "validate <ns/id> <text>",
	Short: "Check whether an entire value matches one pattern",
	Long: `Check whether the entire input is an instance of the identified
pattern, e.g.:

  regexvault validate kr/mobile_01 010-1234-5678

Exit codes: 0 when valid, 1 when invalid, 2 when the pattern does not
exist or loading fails.`,
	Args: cobra.ExactArgs(2),
	Run:  runValidate,
}

func init() {
	validateCmd.Flags().StringSliceVarP(&validatePatterns, "patterns", "p", nil, "pattern files to load (default: configured catalogs)")
}

func runValidate(cmd *cobra.Command, args []string) {
	fullID, text := args[0], args[1]

	eng, err := loadEngine(validatePatterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	result, err := eng.Validate(text, fullID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if result.IsValid {
		fmt.Printf("valid: %q matches %s\n", text, fullID)
		return
	}
	fmt.Printf("invalid: %q does not match %s\n", text, fullID)
	os.Exit(1)
}
