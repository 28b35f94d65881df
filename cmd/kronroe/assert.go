package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kronroe-db/kronroe"
	"github.com/spf13/cobra"
)

var assertCmd = &cobra.Command{
	Use:   "assert SUBJECT PREDICATE VALUE",
	Short: "Assert a new fact",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, predicate, raw := args[0], args[1], args[2]

		kind, _ := cmd.Flags().GetString("type")
		confidence, _ := cmd.Flags().GetFloat64("confidence")
		validFromStr, _ := cmd.Flags().GetString("valid-from")

		value, err := parseValue(kind, raw)
		if err != nil {
			return err
		}

		validFrom := time.Now().UTC()
		if validFromStr != "" {
			validFrom, err = time.Parse(time.RFC3339, validFromStr)
			if err != nil {
				return fmt.Errorf("parsing --valid-from: %w", err)
			}
		}

		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		id, err := g.AssertFactWithConfidence(subject, predicate, value, validFrom, confidence)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	assertCmd.Flags().String("type", "text", "value type: text, number, boolean, entity")
	assertCmd.Flags().Float64("confidence", 1.0, "confidence in [0,1]")
	assertCmd.Flags().String("valid-from", "", "RFC3339 instant this fact became true (default: now)")
}

func parseValue(kind, raw string) (kronroe.Value, error) {
	switch kind {
	case "text":
		return kronroe.NewTextValue(raw), nil
	case "number":
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return kronroe.Value{}, fmt.Errorf("parsing number value: %w", err)
		}
		return kronroe.NewNumberValue(n), nil
	case "boolean":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return kronroe.Value{}, fmt.Errorf("parsing boolean value: %w", err)
		}
		return kronroe.NewBooleanValue(b), nil
	case "entity":
		return kronroe.NewEntityValue(raw), nil
	default:
		return kronroe.Value{}, fmt.Errorf("unknown --type %q", kind)
	}
}
