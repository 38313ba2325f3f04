package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mvp-joe/fieldgraph/internal/field"
)

// FieldReader reads field definitions from SQLite. Soft-deleted fields are
// never returned.
type FieldReader struct {
	db *sql.DB
}

// NewFieldReader creates a FieldReader. The schema must already exist.
func NewFieldReader(db *sql.DB) *FieldReader {
	return &FieldReader{db: db}
}

// ReadFields returns the fields of the given tables ordered by table, field
// order and id. An empty tableIDs reads every table.
func (r *FieldReader) ReadFields(ctx context.Context, tableIDs []string) ([]field.Record, error) {
	query := sq.Select(
		"id", "table_id", "name", "type", "is_computed", "is_lookup",
		"options", "lookup_options", "field_order",
	).
		From("field").
		Where(sq.Eq{"deleted_time": nil}).
		OrderBy("table_id", "field_order", "id")
	if len(tableIDs) > 0 {
		query = query.Where(sq.Eq{"table_id": tableIDs})
	}

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	var records []field.Record
	for rows.Next() {
		var (
			rec           field.Record
			fieldType     string
			options       sql.NullString
			lookupOptions sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.TableID, &rec.Name, &fieldType, &rec.IsComputed, &rec.IsLookup,
			&options, &lookupOptions, &rec.Order,
		); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		rec.Type = field.Type(fieldType)
		rec.Options = nullableString(options)
		rec.LookupOptions = nullableString(lookupOptions)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fields: %w", err)
	}
	return records, nil
}

// ListTableIDs returns the distinct ids of tables that have live fields.
func (r *FieldReader) ListTableIDs(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("DISTINCT table_id").
		From("field").
		Where(sq.Eq{"deleted_time": nil}).
		OrderBy("table_id").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tableIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan table id: %w", err)
		}
		tableIDs = append(tableIDs, id)
	}
	return tableIDs, rows.Err()
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
