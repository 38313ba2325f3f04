package config

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// DirName is the per-project directory holding config.yml and the default database.
const DirName = ".fieldgraph"

// Config represents the complete fieldgraph configuration.
// It can be loaded from .fieldgraph/config.yml with environment variable overrides.
type Config struct {
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Graph   GraphConfig   `yaml:"graph" mapstructure:"graph"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

// StorageConfig locates the field definition database.
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"` // relative paths resolve against the project root
}

// GraphConfig controls which tables are built and how.
type GraphConfig struct {
	Tables           []string `yaml:"tables" mapstructure:"tables"`                         // glob patterns over table ids
	OptionsCacheSize int      `yaml:"options_cache_size" mapstructure:"options_cache_size"` // parsed option documents kept between builds, 0 disables
	ImpactDepth      int      `yaml:"impact_depth" mapstructure:"impact_depth"`             // default hop limit for impact queries, 0 is unbounded
}

// WatchConfig controls rebuild-on-change.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DBPath: filepath.Join(DirName, "fields.db"),
		},
		Graph: GraphConfig{
			Tables:           []string{"*"},
			OptionsCacheSize: 10_000,
			ImpactDepth:      0,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
	}
}

// ResolveDBPath returns the database path, resolving relative paths against rootDir.
func (c *Config) ResolveDBPath(rootDir string) string {
	if filepath.IsAbs(c.Storage.DBPath) {
		return c.Storage.DBPath
	}
	return filepath.Join(rootDir, c.Storage.DBPath)
}

// TableMatcher compiles the table patterns into a predicate over table ids.
// An empty pattern list matches every table.
func (c *GraphConfig) TableMatcher() (func(tableID string) bool, error) {
	return CompileTablePatterns(c.Tables)
}

// CompileTablePatterns compiles glob patterns into a predicate that matches
// a table id when any pattern matches it.
func CompileTablePatterns(patterns []string) (func(tableID string) bool, error) {
	if len(patterns) == 0 {
		return func(string) bool { return true }, nil
	}

	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTablePattern, pattern, err)
		}
		globs = append(globs, g)
	}

	return func(tableID string) bool {
		for _, g := range globs {
			if g.Match(tableID) {
				return true
			}
		}
		return false
	}, nil
}

// FilterTables returns the table ids matched by the configured patterns, in input order.
func (c *GraphConfig) FilterTables(tableIDs []string) ([]string, error) {
	match, err := c.TableMatcher()
	if err != nil {
		return nil, err
	}
	var selected []string
	for _, id := range tableIDs {
		if match(id) {
			selected = append(selected, id)
		}
	}
	return selected, nil
}
