package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load uses defaults when no config file exists
// - Load reads .fieldgraph/config.yml and merges it with defaults
// - Environment variables override config file values
// - An explicit config file that does not exist is an error
// - Load returns error for malformed YAML and invalid values
// - Validate() rejects empty db path, bad globs, negative sizes, and reports all of them
// - Table patterns match with glob semantics and an empty list matches everything
// - ResolveDBPath keeps absolute paths and anchors relative ones at the root

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, DirName)
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, filepath.Join(".fieldgraph", "fields.db"), cfg.Storage.DBPath)
	assert.Equal(t, []string{"*"}, cfg.Graph.Tables)
	assert.Equal(t, 10_000, cfg.Graph.OptionsCacheSize)
	assert.Equal(t, 0, cfg.Graph.ImpactDepth)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, `
storage:
  db_path: /var/lib/fieldgraph/base.db
graph:
  tables: ["tblOrders*", "tblCustomers"]
  options_cache_size: 250
`)

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/fieldgraph/base.db", cfg.Storage.DBPath)
	assert.Equal(t, []string{"tblOrders*", "tblCustomers"}, cfg.Graph.Tables)
	assert.Equal(t, 250, cfg.Graph.OptionsCacheSize)
	assert.Equal(t, 500, cfg.Watch.DebounceMs, "unset keys keep defaults")
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempDir := t.TempDir()
	writeConfig(t, tempDir, `
storage:
  db_path: from-file.db
watch:
  debounce_ms: 100
`)

	t.Setenv("FIELDGRAPH_STORAGE_DB_PATH", "from-env.db")
	t.Setenv("FIELDGRAPH_GRAPH_IMPACT_DEPTH", "4")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.Storage.DBPath)
	assert.Equal(t, 4, cfg.Graph.ImpactDepth)
	assert.Equal(t, 100, cfg.Watch.DebounceMs)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("graph:\n  impact_depth: 2\n"), 0644))

	cfg, err := NewFileLoader(tempDir, path).Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Graph.ImpactDepth)

	_, err = NewFileLoader(tempDir, filepath.Join(tempDir, "missing.yaml")).Load()
	assert.Error(t, err)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "graph:\n  tables: [unclosed\n")

	_, err := NewLoader(tempDir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "graph:\n  options_cache_size: -1\n")

	_, err := NewLoader(tempDir).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCacheSize)
}

func TestValidate_ReturnsMultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Storage.DBPath = "  "
	cfg.Graph.Tables = []string{"tbl[abc"}
	cfg.Graph.ImpactDepth = -1
	cfg.Watch.DebounceMs = -5

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), ErrEmptyDBPath.Error())
	assert.Contains(t, err.Error(), ErrInvalidTablePattern.Error())
	assert.Contains(t, err.Error(), ErrInvalidDepth.Error())
	assert.Contains(t, err.Error(), ErrInvalidDebounce.Error())
}

func TestGraphConfig_FilterTables(t *testing.T) {
	t.Parallel()

	cfg := GraphConfig{Tables: []string{"tblOrder*", "tblCustomers"}}
	selected, err := cfg.FilterTables([]string{"tblOrders", "tblOrderLines", "tblCustomers", "tblInvoices"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tblOrders", "tblOrderLines", "tblCustomers"}, selected)

	all := GraphConfig{}
	selected, err = all.FilterTables([]string{"tblA", "tblB"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tblA", "tblB"}, selected)

	_, err = CompileTablePatterns([]string{"tbl[abc"})
	assert.ErrorIs(t, err, ErrInvalidTablePattern)
}

func TestConfig_ResolveDBPath(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, filepath.Join("/srv/base", ".fieldgraph", "fields.db"), cfg.ResolveDBPath("/srv/base"))

	cfg.Storage.DBPath = "/abs/fields.db"
	assert.Equal(t, "/abs/fields.db", cfg.ResolveDBPath("/srv/base"))
}
