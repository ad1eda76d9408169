// Command noiser releases differentially private category counts from a
// census extract, interactively or over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile  string
	dataPath string
	dbPath   string
	table    string
	field    string
	alpha    float64
	seed     uint64
	verbose  bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "noiser",
	Short: "Release noised category counts",
	Long: `noiser counts one categorical field of a census extract and perturbs the
counts with discrete Laplace or discrete Gaussian noise, calibrated so that
each released count is within the target accuracy with probability 1-alpha.

Run without a subcommand to start the interactive screen.`,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "noiser.yaml", "Config file (missing file means defaults)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "CSV file with a header line")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database to read records from instead of CSV")
	rootCmd.PersistentFlags().StringVar(&table, "table", "", "SQLite table holding the records")
	rootCmd.PersistentFlags().StringVarP(&field, "field", "f", "", "Field to count")
	rootCmd.PersistentFlags().Float64Var(&alpha, "alpha", 0, "Probability that a count misses the target accuracy")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "Noise seed (0 for a random source)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(releaseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
