// Command kronroe provides CLI access to a TemporalGraph database file.
//
// Usage:
//
//	kronroe assert SUBJECT PREDICATE VALUE --valid-from=2024-01-01T00:00:00Z
//	kronroe get FACT_ID
//	kronroe current SUBJECT PREDICATE
//	kronroe at SUBJECT PREDICATE --instant=2024-01-01T00:00:00Z
//	kronroe history SUBJECT
//	kronroe search QUERY
//	kronroe export --output=facts.json
//	kronroe import facts.json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cmdErrWriter = os.Stderr

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "kronroe",
	Short: "Kronroe - embedded bi-temporal property graph database engine",
	Long: `Kronroe is an embedded, in-process bi-temporal property graph engine.
It stores facts as (subject, predicate, object) triples tracked over both
valid time and transaction time, with optional full-text, vector, and
hybrid retrieval layered on top.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "kronroe.toml", "path to config file")
	rootCmd.PersistentFlags().String("db", "", "path to database file (overrides config)")

	rootCmd.AddCommand(assertCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(atCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(vectorSearchCmd)
	rootCmd.AddCommand(hybridSearchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
