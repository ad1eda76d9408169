// Command seed writes a synthetic census extract for noiser, as CSV and/or
// as a SQLite table.
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/dataset"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/storage"
)

var (
	rows    int
	seed    uint64
	csvPath string
	dbPath  string
	table   string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a synthetic census dataset",
	RunE:  runSeed,
}

func init() {
	rootCmd.Flags().IntVarP(&rows, "rows", "n", 10000, "number of records")
	rootCmd.Flags().Uint64Var(&seed, "seed", 42, "random seed")
	rootCmd.Flags().StringVar(&csvPath, "csv", "data/data.csv", "CSV output path (empty to skip)")
	rootCmd.Flags().StringVar(&dbPath, "db", os.Getenv("NOISER_DB_PATH"), "SQLite output path (empty to skip)")
	rootCmd.Flags().StringVar(&table, "table", "records", "SQLite table name")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	if rows < 0 {
		return fmt.Errorf("--rows must not be negative")
	}
	if csvPath == "" && dbPath == "" {
		return fmt.Errorf("nothing to do: set --csv or --db")
	}

	schema := dataset.DefaultSchema()
	records := generate(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), rows)

	if csvPath != "" {
		if err := writeCSV(csvPath, schema, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), csvPath)
	}

	if dbPath != "" {
		ctx := cmd.Context()
		db, err := storage.Open(ctx, dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := storage.DropRecordsTable(ctx, db, table); err != nil {
			return err
		}
		if err := storage.EnsureRecordsTable(ctx, db, table, schema); err != nil {
			return err
		}
		if err := storage.InsertRecords(ctx, db, table, schema, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s:%s\n", len(records), dbPath, table)
	}
	return nil
}

// generate draws n records in DefaultSchema column order. Values mostly
// fall inside the bucket enumerations; a small share lands outside so the
// silent-drop path is exercised by real data.
func generate(r *rand.Rand, n int) [][]string {
	out := make([][]string, n)
	for i := range out {
		age := 18 + r.IntN(73)
		sex := r.IntN(2)
		// educ is skewed toward high-school completion
		educ := 1 + int(r.NormFloat64()*3+10)
		if educ < 1 {
			educ = 1
		}
		race := 1 + r.IntN(6)
		// income is heavy-tailed, rounded to the nearest 10,000
		income := int(15000+r.ExpFloat64()*40000) / 10000 * 10000
		if income == 0 {
			income = 10000
		}
		married := 0
		if age > 25 && r.Float64() < 0.55 {
			married = 1
		}
		out[i] = []string{
			strconv.Itoa(age),
			strconv.Itoa(sex),
			strconv.Itoa(educ),
			strconv.Itoa(race),
			strconv.Itoa(income),
			strconv.Itoa(married),
		}
	}
	return out
}

func writeCSV(path string, schema dataset.Schema, records [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(schema.Columns()); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
