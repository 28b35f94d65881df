package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full fact history to JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		data, err := g.Export()
		if err != nil {
			return err
		}

		if output == "" {
			fmt.Println(string(data))
			return nil
		}
		return os.WriteFile(output, data, 0644)
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import facts from a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		result, err := g.Import(data)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d, skipped %d\n", result.Imported, result.Skipped)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "", "write to file instead of stdout")
}
