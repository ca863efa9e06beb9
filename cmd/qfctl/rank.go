package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

var (
	rankIntent      string
	rankMaxEntities int
)

var rankCmd = &cobra.Command{
	Use:   "rank [question]",
	Short: "Rank candidate tables for a natural-language question",
	Long: `Rank candidate tables by relevance to a question. The question comes
from the first argument or stdin. Candidates come from the configured
document store when one is available; without a store the lexical pass
still answers questions about common domain vocabulary.

Examples:
  qfctl rank "total order value per customer"
  echo "customer lifetime value" | qfctl rank --max-entities 3`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankIntent, "intent", "", "Optional analysis intent; defaults to the question")
	rankCmd.Flags().IntVar(&rankMaxEntities, "max-entities", 0, "Maximum tables to return (0 uses the configured default)")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	question, err := readInput(args)
	if err != nil {
		return err
	}

	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	ctx := context.Background()

	var candidates []models.EntityCandidate
	if eng.searcher != nil {
		limit := rankMaxEntities
		if limit < 1 {
			limit = eng.cfg.Pipeline.MaxEntities
		}
		candidates, err = eng.searcher.SearchTables(ctx, question, limit*2)
		if err != nil {
			return fmt.Errorf("table search failed: %w", err)
		}
	}

	result := eng.ranker.Rank(ctx, question, rankIntent, candidates, rankMaxEntities)
	return printJSON(result)
}
