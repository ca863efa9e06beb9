package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [sql]",
	Short: "Analyze a SQL statement for complexity and optimization hints",
	Long: `Score a SQL statement's structural complexity and suggest
optimizations. The SQL comes from the first argument or stdin.

Examples:
  qfctl optimize "SELECT * FROM orders o JOIN customers c ON o.customer_id = c.id"
  cat query.sql | qfctl optimize`,
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
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

	return printJSON(eng.optimizer.Analyze(sqlText))
}
