package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mvp-joe/fieldgraph/internal/graph"
)

// ReferenceReader reads recorded field references (formula references and
// similar) as dependency edges.
type ReferenceReader struct {
	db *sql.DB
}

// NewReferenceReader creates a ReferenceReader. The schema must already exist.
func NewReferenceReader(db *sql.DB) *ReferenceReader {
	return &ReferenceReader{db: db}
}

// ReadReferenceEdges returns the references whose target is one of toFieldIDs.
// Both endpoints are joined to live fields to resolve their tables; references
// to deleted or unknown fields are dropped. An edge is same_record when both
// fields live in one table, cross_record otherwise.
func (r *ReferenceReader) ReadReferenceEdges(ctx context.Context, toFieldIDs []string) ([]graph.Edge, error) {
	if len(toFieldIDs) == 0 {
		return nil, nil
	}

	rows, err := sq.Select("r.from_field_id", "r.to_field_id", "ff.table_id", "ft.table_id").
		From("reference r").
		Join("field ff ON ff.id = r.from_field_id AND ff.deleted_time IS NULL").
		Join("field ft ON ft.id = r.to_field_id AND ft.deleted_time IS NULL").
		Where(sq.Eq{"r.to_field_id": toFieldIDs}).
		OrderBy("r.to_field_id", "r.from_field_id").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.FromFieldID, &e.ToFieldID, &e.FromTableID, &e.ToTableID); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		e.Kind = graph.EdgeSameRecord
		if e.FromTableID != e.ToTableID {
			e.Kind = graph.EdgeCrossRecord
		}
		e.Semantic = graph.SemanticFormulaRef
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate references: %w", err)
	}
	return edges, nil
}
