package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get FACT_ID",
	Short: "Look up a single fact by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		f, err := g.FactByID(parseFactID(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(fmtFact(f))
		return nil
	},
}

var currentCmd = &cobra.Command{
	Use:   "current SUBJECT PREDICATE",
	Short: "List the current, active facts for (subject, predicate)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		facts, err := g.CurrentFacts(args[0], args[1])
		if err != nil {
			return err
		}
		for _, f := range facts {
			fmt.Println(fmtFact(f))
		}
		return nil
	},
}

var atCmd = &cobra.Command{
	Use:   "at SUBJECT PREDICATE",
	Short: "List the facts valid at a given instant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		instantStr, _ := cmd.Flags().GetString("instant")
		if instantStr == "" {
			return fmt.Errorf("--instant is required")
		}
		instant, err := time.Parse(time.RFC3339, instantStr)
		if err != nil {
			return fmt.Errorf("parsing --instant: %w", err)
		}

		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		facts, err := g.FactsAt(args[0], args[1], instant)
		if err != nil {
			return err
		}
		for _, f := range facts {
			fmt.Println(fmtFact(f))
		}
		return nil
	},
}

func init() {
	atCmd.Flags().String("instant", "", "RFC3339 instant to evaluate at (required)")
}

var historyCmd = &cobra.Command{
	Use:   "history SUBJECT",
	Short: "Show the full recorded history for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		facts, err := g.AllFactsAbout(args[0])
		if err != nil {
			return err
		}
		for _, f := range facts {
			fmt.Println(fmtFact(f))
		}
		return nil
	},
}
