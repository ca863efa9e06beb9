package main

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "qfctl",
	Short: "queryforge-engine command line",
	Long: `qfctl runs the queryforge engine from the command line: rank candidate
tables for a question, validate or optimize SQL, or run the full
question-to-SQL pipeline. Results are printed as JSON on stdout.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml",
		"Path to the engine configuration file")
}
