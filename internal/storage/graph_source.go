package storage

import (
	"context"
	"database/sql"

	"github.com/mvp-joe/fieldgraph/internal/field"
	"github.com/mvp-joe/fieldgraph/internal/graph"
)

// GraphSource adapts the SQLite readers to graph.FieldSource and
// graph.ReferenceSource so a graph.Builder can load straight from the database.
type GraphSource struct {
	fields     *FieldReader
	references *ReferenceReader
}

var (
	_ graph.FieldSource     = (*GraphSource)(nil)
	_ graph.ReferenceSource = (*GraphSource)(nil)
)

// NewGraphSource creates a GraphSource sharing db between both readers.
func NewGraphSource(db *sql.DB) *GraphSource {
	return &GraphSource{
		fields:     NewFieldReader(db),
		references: NewReferenceReader(db),
	}
}

// LoadFields implements graph.FieldSource.
func (s *GraphSource) LoadFields(ctx context.Context, tableIDs []string) ([]field.Record, error) {
	return s.fields.ReadFields(ctx, tableIDs)
}

// LoadReferenceEdges implements graph.ReferenceSource.
func (s *GraphSource) LoadReferenceEdges(ctx context.Context, toFieldIDs []string) ([]graph.Edge, error) {
	return s.references.ReadReferenceEdges(ctx, toFieldIDs)
}

// ListTableIDs returns every table with live fields.
func (s *GraphSource) ListTableIDs(ctx context.Context) ([]string, error) {
	return s.fields.ListTableIDs(ctx)
}
