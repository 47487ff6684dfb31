package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var patternsFiles []string

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List the loaded patterns by namespace",
	RunE:  runPatterns,
}

func init() {
	patternsCmd.Flags().StringSliceVarP(&patternsFiles, "patterns", "p", nil, "pattern files to load (default: configured catalogs)")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(patternsFiles)
	if err != nil {
		return err
	}

	registry := eng.Registry()
	fmt.Printf("Loaded %d pattern(s) in %d namespace(s), registry version %d\n",
		registry.Len(), len(registry.Namespaces()), registry.Version())

	for _, ns := range registry.Namespaces() {
		fmt.Printf("\n%s:\n", ns)
		for _, rule := range registry.Namespace(ns) {
			line := fmt.Sprintf("  %-24s %-10s %-8s", rule.ID, rule.Category, rule.Policy.Severity)
			if rule.Description != "" {
				line += " " + rule.Description
			}
			fmt.Println(line)
		}
	}
	return nil
}
