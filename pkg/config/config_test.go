package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"NOISER_DATA_PATH", "NOISER_DB_PATH", "NOISER_FIELD", "NOISER_ALPHA", "PORT"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "educ", cfg.Engine.Field)
	assert.Equal(t, 0.05, cfg.Engine.Alpha)
	assert.Equal(t, 100, cfg.Engine.MaxAccuracyIndex)
	assert.Equal(t, []string{"educ", "income"}, cfg.Engine.Fields)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "noiser.yaml")

	cfg := DefaultConfig()
	cfg.Engine.Field = "income"
	cfg.Engine.Alpha = 0.1
	cfg.Data.Delimiter = ";"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "income", loaded.Engine.Field)
	assert.Equal(t, 0.1, loaded.Engine.Alpha)

	r, err := loaded.DelimiterRune()
	require.NoError(t, err)
	assert.Equal(t, ';', r)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "noiser.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  alpha: 0.2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Engine.Alpha)
	assert.Equal(t, "educ", cfg.Engine.Field)
	assert.Equal(t, "data/data.csv", cfg.Data.Path)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "noiser.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOISER_DATA_PATH", "/tmp/census.csv")
	t.Setenv("NOISER_DB_PATH", "/tmp/census.sqlite")
	t.Setenv("NOISER_FIELD", "income")
	t.Setenv("NOISER_ALPHA", "0.01")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/census.csv", cfg.Data.Path)
	assert.Equal(t, "/tmp/census.sqlite", cfg.Data.SQLitePath)
	assert.Equal(t, "income", cfg.Engine.Field)
	assert.Equal(t, 0.01, cfg.Engine.Alpha)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestConfig_EnvOverrideBadAlpha(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOISER_ALPHA", "lots")
	_, err := Load("")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]func(*Config){
		"alpha zero":      func(c *Config) { c.Engine.Alpha = 0 },
		"alpha one":       func(c *Config) { c.Engine.Alpha = 1 },
		"no field":        func(c *Config) { c.Engine.Field = "" },
		"no source":       func(c *Config) { c.Data.Path = "" },
		"no table":        func(c *Config) { c.Data.SQLitePath = "x.sqlite"; c.Data.Table = "" },
		"bad delimiter":   func(c *Config) { c.Data.Delimiter = "::" },
		"quote delimiter": func(c *Config) { c.Data.Delimiter = "\"" },
		"negative max":    func(c *Config) { c.Engine.MaxAccuracyIndex = -1 },
		"nan alpha":       func(c *Config) { c.Engine.Alpha = math.NaN() },
		"unknown field":   func(c *Config) { c.Engine.Field = "zip" },
		"unknown cycle":   func(c *Config) { c.Engine.Fields = []string{"educ", "zip", "income"} },
		"zero step":       func(c *Config) { c.Engine.AccuracyStep = 0 },
		"bad log format":  func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_ValidateAcceptsZeroMaxIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.MaxAccuracyIndex = 0
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateNamesBadCycleEntry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Fields = []string{"educ", "zip", "income"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"zip"`)
}

func TestSwitchCycle(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"educ", "income"}, cfg.SwitchCycle())

	cfg.Engine.Field = "age"
	assert.Equal(t, []string{"age", "educ", "income"}, cfg.SwitchCycle())
}

func TestTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.GetReadTimeout())
	cfg.Server.WriteTimeout = "nonsense"
	assert.Equal(t, 60*time.Second, cfg.GetWriteTimeout())
	cfg.Server.IdleTimeout = "5m"
	assert.Equal(t, 5*time.Minute, cfg.GetIdleTimeout())
}
