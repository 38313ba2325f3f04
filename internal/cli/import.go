package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/mvp-joe/fieldgraph/internal/field"
	"github.com/mvp-joe/fieldgraph/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const importLockTimeout = 5 * time.Second

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file.json|file.yaml>",
	Short: "Load field definitions and references into the field database",
	Long: `Import reads a JSON document of the form

  {
    "fields": [
      {"id": "fldTotal", "tableId": "tblOrder", "type": "rollup",
       "lookupOptions": {"linkFieldId": "fldItems", "foreignTableId": "tblItem", "lookupFieldId": "fldPrice"}}
    ],
    "references": [
      {"fromFieldId": "fldQty", "toFieldId": "fldTotal"}
    ]
  }

and upserts it into the configured database, creating it if needed.

"options" and "lookupOptions" may be JSON objects or strings; strings are
stored verbatim, which allows importing malformed configurations. Files ending
in .yaml or .yml are read as YAML with the same structure.

With --replace, every imported field and every reference target has its
recorded references replaced by the ones in the document, as when formulas
are edited. Without it references are only added.

Concurrent imports into the same database are serialized with a lock file.
`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importReplace bool

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "replace the references of imported fields instead of adding to them")
}

// importDocument is the on-disk format accepted by the import command.
type importDocument struct {
	Fields     []importField       `json:"fields"`
	References []storage.Reference `json:"references"`
}

type importField struct {
	ID            string          `json:"id"`
	TableID       string          `json:"tableId"`
	Name          string          `json:"name"`
	Type          field.Type      `json:"type"`
	IsComputed    *bool           `json:"isComputed"`
	Options       json.RawMessage `json:"options"`
	LookupOptions json.RawMessage `json:"lookupOptions"`
	Order         float64         `json:"order"`
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if ext := strings.ToLower(filepath.Ext(args[0])); ext == ".yaml" || ext == ".yml" {
		if data, err = yamlToJSON(data); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}
	}
	records, refs, err := decodeImport(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	if err := os.MkdirAll(filepath.Dir(env.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	lock, err := lockDatabase(cmd.Context(), env.dbPath)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := storage.Open(env.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if err := storage.NewFieldWriter(db).WriteFields(ctx, records); err != nil {
		return err
	}
	refWriter := storage.NewReferenceWriter(db)
	if importReplace {
		for _, target := range referenceTargets(records, refs) {
			if err := refWriter.ReplaceReferencesTo(ctx, target.toFieldID, target.fromFieldIDs); err != nil {
				return err
			}
		}
	} else if err := refWriter.WriteReferences(ctx, refs); err != nil {
		return err
	}

	log.Printf("Imported %d fields and %d references into %s", len(records), len(refs), env.dbPath)
	return nil
}

// decodeImport converts an import document into storage rows.
func decodeImport(data []byte) ([]field.Record, []storage.Reference, error) {
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}

	records := make([]field.Record, 0, len(doc.Fields))
	for i, f := range doc.Fields {
		if f.ID == "" || f.TableID == "" || f.Type == "" {
			return nil, nil, fmt.Errorf("field %d: id, tableId and type are required", i)
		}
		options, err := rawColumn(f.Options)
		if err != nil {
			return nil, nil, fmt.Errorf("field %s options: %w", f.ID, err)
		}
		lookupOptions, err := rawColumn(f.LookupOptions)
		if err != nil {
			return nil, nil, fmt.Errorf("field %s lookupOptions: %w", f.ID, err)
		}

		isComputed := f.Type.IsComputedType()
		if f.IsComputed != nil {
			isComputed = *f.IsComputed
		}
		order := f.Order
		if order == 0 {
			order = float64(i)
		}

		records = append(records, field.Record{
			ID:            f.ID,
			TableID:       f.TableID,
			Name:          f.Name,
			Type:          f.Type,
			IsComputed:    isComputed,
			IsLookup:      f.Type == field.TypeLookup,
			Options:       options,
			LookupOptions: lookupOptions,
			Order:         order,
		})
	}

	for i, ref := range doc.References {
		if ref.FromFieldID == "" || ref.ToFieldID == "" {
			return nil, nil, fmt.Errorf("reference %d: fromFieldId and toFieldId are required", i)
		}
	}
	return records, doc.References, nil
}

// referenceTarget is one field with the complete set of its sources.
type referenceTarget struct {
	toFieldID    string
	fromFieldIDs []string
}

// referenceTargets groups refs by target. Imported fields without references
// are included with no sources so their stale references are cleared.
func referenceTargets(records []field.Record, refs []storage.Reference) []referenceTarget {
	index := make(map[string]int)
	var targets []referenceTarget
	add := func(id string) int {
		if i, ok := index[id]; ok {
			return i
		}
		index[id] = len(targets)
		targets = append(targets, referenceTarget{toFieldID: id})
		return len(targets) - 1
	}

	for _, rec := range records {
		add(rec.ID)
	}
	for _, ref := range refs {
		i := add(ref.ToFieldID)
		targets[i].fromFieldIDs = append(targets[i].fromFieldIDs, ref.FromFieldID)
	}
	return targets
}

// rawColumn maps an options value to its column text. JSON strings are
// unquoted, anything else is stored as written, and null means no column.
func rawColumn(raw json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}
	s := string(trimmed)
	return &s, nil
}

// lockDatabase takes the exclusive import lock next to dbPath.
func lockDatabase(ctx context.Context, dbPath string) (*flock.Flock, error) {
	lock := flock.New(dbPath + ".lock")
	ctx, cancel := context.WithTimeout(ctx, importLockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for import lock on %s", dbPath)
	}
	return lock, nil
}

// yamlToJSON re-encodes a YAML import document as JSON.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
