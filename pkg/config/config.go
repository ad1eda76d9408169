// Package config loads the noiser YAML configuration.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/dataset"
)

// Config holds all noiser configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Engine  EngineConfig  `yaml:"engine"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig says where the raw records come from. When SQLitePath is set
// the records are read from Table instead of Path.
type DataConfig struct {
	Path       string `yaml:"path"`
	Delimiter  string `yaml:"delimiter"`
	SQLitePath string `yaml:"sqlite_path"`
	Table      string `yaml:"table"`
}

// EngineConfig holds the initial noise parameters.
type EngineConfig struct {
	Field string `yaml:"field"`
	// Fields is the cycle used by the switch-field action.
	Fields           []string `yaml:"fields"`
	Alpha            float64  `yaml:"alpha"`
	MaxAccuracyIndex int      `yaml:"max_accuracy_index"`
	AccuracyStep     float64  `yaml:"accuracy_step"`
	// Seed makes noise reproducible; 0 draws from the global source.
	Seed uint64 `yaml:"seed"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	IdleTimeout  string `yaml:"idle_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path:      "data/data.csv",
			Delimiter: ",",
			Table:     "records",
		},
		Engine: EngineConfig{
			Field:            "educ",
			Fields:           []string{"educ", "income"},
			Alpha:            0.05,
			MaxAccuracyIndex: 100,
			AccuracyStep:     1,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  "30s",
			WriteTimeout: "60s",
			IdleTimeout:  "120s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if path := os.Getenv("NOISER_DATA_PATH"); path != "" {
		c.Data.Path = path
	}
	if path := os.Getenv("NOISER_DB_PATH"); path != "" {
		c.Data.SQLitePath = path
	}
	if field := os.Getenv("NOISER_FIELD"); field != "" {
		c.Engine.Field = field
	}
	if v := os.Getenv("NOISER_ALPHA"); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("NOISER_ALPHA: %w", err)
		}
		c.Engine.Alpha = alpha
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Data.Path == "" && c.Data.SQLitePath == "" {
		return fmt.Errorf("no data source configured (data.path or data.sqlite_path)")
	}
	if c.Data.SQLitePath != "" && c.Data.Table == "" {
		return fmt.Errorf("data.table is required with data.sqlite_path")
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if c.Engine.Field == "" {
		return fmt.Errorf("engine.field is required")
	}
	schema := dataset.DefaultSchema()
	if !schema.Has(c.Engine.Field) {
		return fmt.Errorf("engine.field %q is not a column (valid: %s)", c.Engine.Field, strings.Join(schema.Columns(), ", "))
	}
	for _, f := range c.Engine.Fields {
		if !schema.Has(f) {
			return fmt.Errorf("engine.fields entry %q is not a column (valid: %s)", f, strings.Join(schema.Columns(), ", "))
		}
	}
	if math.IsNaN(c.Engine.Alpha) || c.Engine.Alpha <= 0 || c.Engine.Alpha >= 1 {
		return fmt.Errorf("engine.alpha must be in (0, 1), got %g", c.Engine.Alpha)
	}
	if c.Engine.MaxAccuracyIndex < 0 {
		return fmt.Errorf("engine.max_accuracy_index must not be negative, got %d", c.Engine.MaxAccuracyIndex)
	}
	if c.Engine.AccuracyStep <= 0 {
		return fmt.Errorf("engine.accuracy_step must be positive, got %g", c.Engine.AccuracyStep)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging.format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}

// DelimiterRune returns the single-character field delimiter.
func (c *Config) DelimiterRune() (rune, error) {
	r := []rune(c.Data.Delimiter)
	switch {
	case len(r) == 0:
		return ',', nil
	case len(r) == 1 && r[0] != '\n' && r[0] != '\r' && r[0] != '"':
		return r[0], nil
	default:
		return 0, fmt.Errorf("invalid data.delimiter %q", c.Data.Delimiter)
	}
}

// SwitchCycle returns the fields the switch action cycles through, always
// containing the initial field.
func (c *Config) SwitchCycle() []string {
	for _, f := range c.Engine.Fields {
		if f == c.Engine.Field {
			return append([]string(nil), c.Engine.Fields...)
		}
	}
	return append([]string{c.Engine.Field}, c.Engine.Fields...)
}

// GetReadTimeout returns the server read timeout (default 30s).
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the server write timeout (default 60s).
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 60*time.Second)
}

// GetIdleTimeout returns the server idle timeout (default 120s).
func (c *Config) GetIdleTimeout() time.Duration {
	return parseDuration(c.Server.IdleTimeout, 120*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
