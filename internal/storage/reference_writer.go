package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Reference is one recorded "from field is used by to field" row.
type Reference struct {
	FromFieldID string `json:"fromFieldId"`
	ToFieldID   string `json:"toFieldId"`
}

// ReferenceWriter writes reference rows to SQLite.
type ReferenceWriter struct {
	db *sql.DB
}

// NewReferenceWriter creates a ReferenceWriter. The schema must already exist.
func NewReferenceWriter(db *sql.DB) *ReferenceWriter {
	return &ReferenceWriter{db: db}
}

// WriteReferences records references in a single transaction. Pairs already
// present are left untouched.
func (w *ReferenceWriter) WriteReferences(ctx context.Context, refs []Reference) error {
	if len(refs) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	for _, ref := range refs {
		_, err := sq.Insert("reference").
			Columns("id", "from_field_id", "to_field_id").
			Values(uuid.NewString(), ref.FromFieldID, ref.ToFieldID).
			Options("OR IGNORE").
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to write reference %s -> %s: %w", ref.FromFieldID, ref.ToFieldID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceReferencesTo drops every reference targeting toFieldID and records
// the given sources instead, as happens when a formula is edited.
func (w *ReferenceWriter) ReplaceReferencesTo(ctx context.Context, toFieldID string, fromFieldIDs []string) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := sq.Delete("reference").
		Where(sq.Eq{"to_field_id": toFieldID}).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear references to %s: %w", toFieldID, err)
	}

	for _, from := range fromFieldIDs {
		if _, err := sq.Insert("reference").
			Columns("id", "from_field_id", "to_field_id").
			Values(uuid.NewString(), from, toFieldID).
			Options("OR IGNORE").
			RunWith(tx).
			ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to write reference %s -> %s: %w", from, toFieldID, err)
		}
	}

	return tx.Commit()
}
