package storage

import (
	"context"
	"testing"

	"github.com/mvp-joe/fieldgraph/internal/field"
	"github.com/mvp-joe/fieldgraph/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for field and reference storage:
// - CreateSchema is idempotent, applies the migration once and records the schema version
// - written fields read back with NULL option columns preserved as nil
// - reads are filtered by table and ordered by field order
// - soft-deleted fields disappear from reads and from reference joins
// - ListTableIDs returns distinct live tables
// - reference edges resolve table ids and kind from the joined fields
// - duplicate references are ignored, ReplaceReferencesTo swaps sources
// - GraphSource feeds graph.Builder end to end

func str(s string) *string {
	return &s
}

func seed(t *testing.T, ctx context.Context, w *FieldWriter) {
	t.Helper()
	require.NoError(t, w.WriteFields(ctx, []field.Record{
		{ID: "fldFormula", TableID: "tblMain", Name: "Summary", Type: field.TypeFormula, IsComputed: true,
			Options: str(`{"expression":"{fldLookup}"}`), Order: 3},
		{ID: "fldName", TableID: "tblMain", Name: "Name", Type: field.TypeSingleLineText, Order: 0},
		{ID: "fldLink", TableID: "tblMain", Name: "Customer", Type: field.TypeLink, IsComputed: true,
			Options: str(`{"foreignTableId":"tblForeign","lookupFieldId":"fldPrimary"}`), Order: 1},
		{ID: "fldLookup", TableID: "tblMain", Name: "Customer email", Type: field.TypeLookup, IsComputed: true, IsLookup: true,
			LookupOptions: str(`{"linkFieldId":"fldLink","foreignTableId":"tblForeign","lookupFieldId":"fldSource"}`), Order: 2},
		{ID: "fldPrimary", TableID: "tblForeign", Name: "Name", Type: field.TypeSingleLineText, Order: 0},
		{ID: "fldSource", TableID: "tblForeign", Name: "Email", Type: field.TypeSingleLineText, Order: 1},
	}))
}

func TestCreateSchema_Idempotent(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	require.NoError(t, CreateSchema(db))

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	var applied int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM goose_db_version WHERE version_id = 1`).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestFieldReader_ReadFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := NewTestDB(t)
	seed(t, ctx, NewFieldWriter(db))

	records, err := NewFieldReader(db).ReadFields(ctx, []string{"tblMain"})
	require.NoError(t, err)
	require.Len(t, records, 4)

	var ids []string
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"fldName", "fldLink", "fldLookup", "fldFormula"}, ids)

	lookup := records[2]
	assert.Equal(t, field.TypeLookup, lookup.Type)
	assert.True(t, lookup.IsComputed)
	assert.True(t, lookup.IsLookup)
	assert.Nil(t, lookup.Options)
	require.NotNil(t, lookup.LookupOptions)
	assert.Contains(t, *lookup.LookupOptions, "fldSource")

	all, err := NewFieldReader(db).ReadFields(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestFieldReader_SoftDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := NewTestDB(t)
	writer := NewFieldWriter(db)
	seed(t, ctx, writer)
	require.NoError(t, NewReferenceWriter(db).WriteReferences(ctx, []Reference{{FromFieldID: "fldName", ToFieldID: "fldFormula"}}))

	require.NoError(t, writer.DeleteFields(ctx, []string{"fldName", "fldPrimary", "fldSource"}))

	records, err := NewFieldReader(db).ReadFields(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	tables, err := NewFieldReader(db).ListTableIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tblMain"}, tables)

	edges, err := NewReferenceReader(db).ReadReferenceEdges(ctx, []string{"fldFormula"})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestReferenceReader_ReadReferenceEdges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := NewTestDB(t)
	seed(t, ctx, NewFieldWriter(db))

	writer := NewReferenceWriter(db)
	require.NoError(t, writer.WriteReferences(ctx, []Reference{
		{FromFieldID: "fldLookup", ToFieldID: "fldFormula"},
		{FromFieldID: "fldSource", ToFieldID: "fldFormula"},
		{FromFieldID: "fldLookup", ToFieldID: "fldFormula"},
		{FromFieldID: "fldGhost", ToFieldID: "fldFormula"},
	}))

	reader := NewReferenceReader(db)
	edges, err := reader.ReadReferenceEdges(ctx, []string{"fldFormula"})
	require.NoError(t, err)
	require.Len(t, edges, 2)

	assert.Equal(t, graph.Edge{
		FromFieldID: "fldLookup", ToFieldID: "fldFormula", FromTableID: "tblMain", ToTableID: "tblMain",
		Kind: graph.EdgeSameRecord, Semantic: graph.SemanticFormulaRef,
	}, edges[0])
	assert.Equal(t, graph.EdgeCrossRecord, edges[1].Kind)
	assert.Equal(t, "tblForeign", edges[1].FromTableID)

	empty, err := reader.ReadReferenceEdges(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, writer.ReplaceReferencesTo(ctx, "fldFormula", []string{"fldName"}))
	edges, err = reader.ReadReferenceEdges(ctx, []string{"fldFormula"})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "fldName", edges[0].FromFieldID)
}

func TestGraphSource_BuildEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, _ := NewTestDBFile(t)
	seed(t, ctx, NewFieldWriter(db))
	require.NoError(t, NewReferenceWriter(db).WriteReferences(ctx, []Reference{
		{FromFieldID: "fldLookup", ToFieldID: "fldFormula"},
		{FromFieldID: "fldLink", ToFieldID: "fldLookup"},
	}))

	source := NewGraphSource(db)
	tables, err := source.ListTableIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tblForeign", "tblMain"}, tables)

	data, err := graph.NewBuilder(source, source).Build(ctx, []string{"tblMain"})
	require.NoError(t, err)

	assert.Len(t, data.FieldsByID, 4)
	assert.Empty(t, data.Diagnostics)
	require.Len(t, data.Edges, 4)
	assert.Equal(t, graph.SemanticLinkTitle, data.Edges[0].Semantic)
	assert.Equal(t, graph.SemanticLookupLink, data.Edges[1].Semantic)
	assert.Equal(t, graph.SemanticLookupSource, data.Edges[2].Semantic)
	assert.Equal(t, graph.SemanticFormulaRef, data.Edges[3].Semantic)
	assert.Equal(t, "fldFormula", data.Edges[3].ToFieldID)
}
