package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ratefeed",
	Short: "Daily exchange rate ETL pipeline",
	Long: `ratefeed collects daily currency exchange rates from a remote
provider, cleans and validates them, and stores them in Postgres.

Usage:
  go run ./cmd/ratefeed [command]

Examples:
  go run ./cmd/ratefeed run
  go run ./cmd/ratefeed api
  go run ./cmd/ratefeed scheduler
  go run ./cmd/ratefeed status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
