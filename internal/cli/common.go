package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/mvp-joe/fieldgraph/internal/config"
	"github.com/mvp-joe/fieldgraph/internal/field"
	"github.com/mvp-joe/fieldgraph/internal/graph"
	"github.com/mvp-joe/fieldgraph/internal/storage"
)

// environment is the resolved configuration shared by every command.
type environment struct {
	rootDir string
	cfg     *config.Config
	dbPath  string
}

func loadEnvironment() (*environment, error) {
	dir := rootDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	var loader config.Loader
	if cfgFile != "" {
		loader = config.NewFileLoader(dir, cfgFile)
	} else {
		loader = config.NewLoader(dir)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	env := &environment{rootDir: dir, cfg: cfg, dbPath: cfg.ResolveDBPath(dir)}
	if verbose {
		log.Printf("Using database %s", env.dbPath)
	}
	return env, nil
}

// openReadOnly opens the configured database for graph building.
func (e *environment) openReadOnly() (*sql.DB, error) {
	if _, err := os.Stat(e.dbPath); err != nil {
		return nil, fmt.Errorf("field database not found at %s (run 'fieldgraph import' first): %w", e.dbPath, err)
	}
	return storage.OpenReadOnly(e.dbPath)
}

// selectTables lists the database tables and keeps the ones matched by
// patterns, falling back to the configured graph.tables patterns.
func (e *environment) selectTables(ctx context.Context, source *storage.GraphSource, patterns []string) ([]string, error) {
	all, err := source.ListTableIDs(ctx)
	if err != nil {
		return nil, err
	}

	graphCfg := e.cfg.Graph
	if len(patterns) > 0 {
		graphCfg.Tables = patterns
	}
	return graphCfg.FilterTables(all)
}

// newParseCache returns nil when caching is disabled.
func (e *environment) newParseCache() (*field.ParseCache, error) {
	if e.cfg.Graph.OptionsCacheSize == 0 {
		return nil, nil
	}
	return field.NewParseCache(e.cfg.Graph.OptionsCacheSize)
}

// buildGraph builds the graph for the selected tables of db.
func (e *environment) buildGraph(ctx context.Context, db *sql.DB, patterns []string, opts ...graph.BuilderOption) (*graph.GraphData, error) {
	source := storage.NewGraphSource(db)

	tables, err := e.selectTables(ctx, source, patterns)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return &graph.GraphData{FieldsByID: map[string]*field.Meta{}}, nil
	}

	return graph.NewBuilder(source, source, opts...).Build(ctx, tables)
}
