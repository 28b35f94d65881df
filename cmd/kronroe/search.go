package main

import (
	"fmt"

	"github.com/kronroe-db/kronroe"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Full-text search over fact object text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		hits, err := g.SearchText(args[0], limit, nil)
		if err != nil {
			return err
		}
		for _, h := range hits {
			fmt.Printf("%.4f  %s\n", h.Score, fmtFact(h.Fact))
		}
		return nil
	},
}

var vectorSearchCmd = &cobra.Command{
	Use:   "vector-search",
	Short: "Cosine-similarity search over fact embeddings",
	RunE: func(cmd *cobra.Command, args []string) error {
		vecStr, _ := cmd.Flags().GetString("vector")
		limit, _ := cmd.Flags().GetInt("limit")
		query, err := parseVector(vecStr)
		if err != nil {
			return fmt.Errorf("parsing --vector: %w", err)
		}

		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		hits, err := g.SearchByVector(query, limit, nil)
		if err != nil {
			return err
		}
		for _, h := range hits {
			fmt.Printf("%.4f  %s\n", h.Score, fmtFact(h.Fact))
		}
		return nil
	},
}

var hybridSearchCmd = &cobra.Command{
	Use:   "hybrid-search QUERY",
	Short: "Fuse full-text and vector search with reciprocal rank fusion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vecStr, _ := cmd.Flags().GetString("vector")
		limit, _ := cmd.Flags().GetInt("limit")
		textWeight, _ := cmd.Flags().GetFloat64("text-weight")
		vectorWeight, _ := cmd.Flags().GetFloat64("vector-weight")
		query, err := parseVector(vecStr)
		if err != nil {
			return fmt.Errorf("parsing --vector: %w", err)
		}

		cfg, err := kronroe.LoadCLIConfig(cfgPath)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("text-weight") {
			textWeight = cfg.Search.TextWeight
		}
		if !cmd.Flags().Changed("vector-weight") {
			vectorWeight = cfg.Search.VectorWeight
		}

		g, err := openGraph(cmd)
		if err != nil {
			return err
		}
		defer g.Close()

		hits, err := g.SearchHybrid(args[0], query, limit, kronroe.HybridParams{
			TextWeight:   textWeight,
			VectorWeight: vectorWeight,
			RankConstant: cfg.Search.RankConstant,
		})
		if err != nil {
			return err
		}
		for _, h := range hits {
			fmt.Printf("%.4f  %s\n", h.Score, fmtFact(h.Fact))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 20, "maximum results")

	vectorSearchCmd.Flags().String("vector", "", "comma-separated query embedding (required)")
	vectorSearchCmd.Flags().Int("limit", 20, "maximum results")
	vectorSearchCmd.MarkFlagRequired("vector")

	hybridSearchCmd.Flags().String("vector", "", "comma-separated query embedding (required)")
	hybridSearchCmd.Flags().Int("limit", 20, "maximum results")
	hybridSearchCmd.Flags().Float64("text-weight", 0.5, "full-text channel weight")
	hybridSearchCmd.Flags().Float64("vector-weight", 0.5, "vector channel weight")
	hybridSearchCmd.MarkFlagRequired("vector")
}
