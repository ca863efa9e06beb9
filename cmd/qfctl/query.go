package main

import (
	"context"

	"github.com/spf13/cobra"
)

var queryIntent string

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Run the full question-to-SQL pipeline",
	Long: `Process a natural-language question end to end: entity recognition,
business context assembly, SQL generation, and validation. Requires AI
to be enabled in the configuration. The question comes from the first
argument or stdin.

Examples:
  qfctl query "total order value per customer this year"
  echo "which customers churned" | qfctl query`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryIntent, "intent", "", "Optional analysis intent; defaults to the question")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	question, err := readInput(args)
	if err != nil {
		return err
	}

	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	response := eng.pipeline.ProcessQuery(context.Background(), question, queryIntent)
	return printJSON(response)
}
