package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

var (
	validateQuery    string
	validateEntities []string
)

var validateCmd = &cobra.Command{
	Use:   "validate [sql]",
	Short: "Run the validation passes over a SQL statement",
	Long: `Validate a SQL statement through the syntax, business, security, and
performance passes. The SQL comes from the first argument or stdin.

With --query, a business context is assembled from the concept catalog and
the business pass checks the SQL against its required joins and
instructions. Without it the SQL is validated context-free.

Examples:
  qfctl validate "SELECT id FROM customers"
  qfctl validate --query "customer lifetime value" --entities customers,orders "SELECT ..."
  cat query.sql | qfctl validate`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateQuery, "query", "", "natural-language question to assemble a business context from")
	validateCmd.Flags().StringSliceVar(&validateEntities, "entities", nil, "entities available to the business context")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	sqlText, err := readInput(args)
	if err != nil {
		return err
	}
	if sqlText == "" {
		return fmt.Errorf("no SQL provided")
	}

	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	bc := models.EmptyBusinessContext()
	if strings.TrimSpace(validateQuery) != "" {
		bc = eng.context.Assemble(context.Background(), validateQuery, validateEntities)
	}

	report := eng.pipeline.ValidateSQL(context.Background(), sqlText, bc)

	return printJSON(struct {
		Valid bool `json:"valid"`
		*models.ValidationReport
	}{report.IsValid(), report})
}
