package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mvp-joe/fieldgraph/internal/field"
)

// FieldWriter writes field definitions to SQLite.
type FieldWriter struct {
	db *sql.DB
}

// NewFieldWriter creates a FieldWriter. The schema must already exist.
func NewFieldWriter(db *sql.DB) *FieldWriter {
	return &FieldWriter{db: db}
}

// WriteFields inserts or replaces the given fields in a single transaction.
func (w *FieldWriter) WriteFields(ctx context.Context, records []field.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	for _, rec := range records {
		_, err := sq.Insert("field").
			Columns(
				"id", "table_id", "name", "type", "is_computed", "is_lookup",
				"options", "lookup_options", "field_order", "deleted_time",
			).
			Values(
				rec.ID, rec.TableID, rec.Name, string(rec.Type), rec.IsComputed, rec.IsLookup,
				rec.Options, rec.LookupOptions, rec.Order, nil,
			).
			Options("OR REPLACE").
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to write field %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteFields soft-deletes fields so readers stop returning them.
func (w *FieldWriter) DeleteFields(ctx context.Context, fieldIDs []string) error {
	if len(fieldIDs) == 0 {
		return nil
	}
	_, err := sq.Update("field").
		Set("deleted_time", time.Now().UTC().Format(time.RFC3339)).
		Where(sq.Eq{"id": fieldIDs}).
		RunWith(w.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete fields: %w", err)
	}
	return nil
}
