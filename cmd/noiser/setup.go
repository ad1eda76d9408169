package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/config"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/dataset"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/engine"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/noise"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/storage"
)

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path = dataPath
		cfg.Data.SQLitePath = ""
	}
	if flags.Changed("db") {
		cfg.Data.SQLitePath = dbPath
	}
	if flags.Changed("table") {
		cfg.Data.Table = table
	}
	if flags.Changed("field") {
		cfg.Engine.Field = field
	}
	if flags.Changed("alpha") {
		cfg.Engine.Alpha = alpha
	}
	if flags.Changed("seed") {
		cfg.Engine.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDataset reads the records from SQLite when configured, the CSV file
// otherwise.
func loadDataset(ctx context.Context, cfg *config.Config) (*dataset.Dataset, error) {
	delim, err := cfg.DelimiterRune()
	if err != nil {
		return nil, err
	}
	schema := dataset.DefaultSchema()
	opts := []dataset.Option{dataset.WithDelimiter(delim)}

	if cfg.Data.SQLitePath != "" {
		db, err := storage.Open(ctx, cfg.Data.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return storage.LoadDataset(ctx, db, cfg.Data.Table, schema, opts...)
	}
	return dataset.LoadFile(cfg.Data.Path, schema, opts...)
}

// newEngine loads the configured records and builds an engine starting at
// the given mechanism and accuracy index.
func newEngine(ctx context.Context, cfg *config.Config, mech noise.Mechanism, index int, log *zap.Logger) (*engine.Engine, error) {
	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	maxIndex := cfg.Engine.MaxAccuracyIndex
	opts := engine.Options{
		Field:            cfg.Engine.Field,
		Alpha:            cfg.Engine.Alpha,
		Mechanism:        mech,
		AccuracyIndex:    index,
		MaxAccuracyIndex: &maxIndex,
		AccuracyStep:     cfg.Engine.AccuracyStep,
	}
	if s := cfg.Engine.Seed; s != 0 {
		opts.Source = rand.NewPCG(s, s)
	}
	return engine.New(ds, opts, log)
}
