package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mvp-joe/fieldgraph/internal/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Builder:
// - builds derived edges for link and lookup fields and merges reference edges
// - reference edges duplicated by derived edges are replaced
// - a field with broken options is reported as a diagnostic without stopping the build
// - incomplete conditional config contributes no edges and no diagnostic
// - reference source receives the loaded field ids
// - a nil reference source yields derived edges only
// - source errors are wrapped and returned
// - context cancellation stops the build
// - progress reporter sees start, every field and completion
// - the parse cache is consulted when configured

type memoryFields struct {
	records []field.Record
	err     error
}

func (m *memoryFields) LoadFields(ctx context.Context, tableIDs []string) ([]field.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]bool, len(tableIDs))
	for _, id := range tableIDs {
		want[id] = true
	}
	var out []field.Record
	for _, rec := range m.records {
		if len(tableIDs) == 0 || want[rec.TableID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memoryReferences struct {
	edges     []Edge
	requested []string
	err       error
}

func (m *memoryReferences) LoadReferenceEdges(ctx context.Context, toFieldIDs []string) ([]Edge, error) {
	m.requested = toFieldIDs
	if m.err != nil {
		return nil, m.err
	}
	return m.edges, nil
}

type recordingProgress struct {
	total     int
	processed []string
	fields    int
	edges     int
	completed bool
}

func (r *recordingProgress) OnGraphBuildingStart(totalFields int) { r.total = totalFields }
func (r *recordingProgress) OnGraphFieldProcessed(processed, total int, fieldID string) {
	r.processed = append(r.processed, fieldID)
}
func (r *recordingProgress) OnGraphBuildingComplete(fieldCount, edgeCount int, duration time.Duration) {
	r.fields, r.edges, r.completed = fieldCount, edgeCount, true
}

func str(s string) *string {
	return &s
}

func sampleRecords() []field.Record {
	return []field.Record{
		{ID: "fldName", TableID: "tblMain", Type: field.TypeSingleLineText},
		{ID: "fldLink", TableID: "tblMain", Type: field.TypeLink, IsComputed: true,
			Options: str(`{"foreignTableId":"tblForeign","lookupFieldId":"fldPrimary","relationship":"manyOne"}`)},
		{ID: "fldLookup", TableID: "tblMain", Type: field.TypeLookup, IsComputed: true, IsLookup: true,
			LookupOptions: str(`{"linkFieldId":"fldLink","foreignTableId":"tblForeign","lookupFieldId":"fldSource"}`)},
		{ID: "fldBroken", TableID: "tblMain", Type: field.TypeRollup, IsComputed: true,
			LookupOptions: str(`{"linkFieldId":`)},
		{ID: "fldDraft", TableID: "tblMain", Type: field.TypeConditionalLookup, IsComputed: true,
			Options: str(`{"foreignTableId":"tblForeign"}`)},
		{ID: "fldFormula", TableID: "tblMain", Type: field.TypeFormula, IsComputed: true,
			Options: str(`{"expression":"{fldLookup} & {fldName}"}`)},
		{ID: "fldPrimary", TableID: "tblForeign", Type: field.TypeSingleLineText},
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	refs := &memoryReferences{edges: []Edge{
		{FromFieldID: "fldLookup", ToFieldID: "fldFormula", FromTableID: "tblMain", ToTableID: "tblMain", Kind: EdgeSameRecord, Semantic: SemanticFormulaRef},
		{FromFieldID: "fldName", ToFieldID: "fldFormula", FromTableID: "tblMain", ToTableID: "tblMain", Kind: EdgeSameRecord, Semantic: SemanticFormulaRef},
		{FromFieldID: "fldLink", ToFieldID: "fldLookup", FromTableID: "tblMain", ToTableID: "tblMain", Kind: EdgeSameRecord, Semantic: SemanticFormulaRef},
	}}
	b := NewBuilder(&memoryFields{records: sampleRecords()}, refs)

	data, err := b.Build(context.Background(), []string{"tblMain"})
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.Len(t, data.FieldsByID, 6)
	assert.Contains(t, data.FieldsByID, "fldBroken", "broken fields stay in the field map")
	assert.Equal(t, []string{"fldName", "fldLink", "fldLookup", "fldBroken", "fldDraft", "fldFormula"}, refs.requested)

	require.Len(t, data.Edges, 5)
	assert.Equal(t, SemanticLinkTitle, data.Edges[0].Semantic)
	assert.Equal(t, SemanticLookupLink, data.Edges[1].Semantic, "derived edge replaces reference edge")
	assert.Equal(t, SemanticLookupSource, data.Edges[2].Semantic)
	assert.Equal(t, "fldFormula", data.Edges[3].ToFieldID)
	assert.Equal(t, "fldFormula", data.Edges[4].ToFieldID)

	require.Len(t, data.Diagnostics, 1)
	assert.Equal(t, "fldBroken", data.Diagnostics[0].FieldID)
	assert.Equal(t, field.TypeRollup, data.Diagnostics[0].Type)
	assert.Equal(t, "Invalid JSON for lookup options", data.Diagnostics[0].Message)
}

func TestBuilder_NoReferenceSource(t *testing.T) {
	t.Parallel()

	data, err := NewBuilder(&memoryFields{records: sampleRecords()}, nil).Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, data.FieldsByID, 7)
	assert.Len(t, data.Edges, 3)
}

func TestBuilder_SourceErrors(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder(&memoryFields{err: errors.New("db locked")}, nil).Build(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load fields")
	assert.Contains(t, err.Error(), "db locked")

	refs := &memoryReferences{err: errors.New("no such table")}
	_, err = NewBuilder(&memoryFields{records: sampleRecords()}, refs).Build(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load reference edges")
}

func TestBuilder_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(&memoryFields{records: sampleRecords()}, nil).Build(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_ProgressAndCache(t *testing.T) {
	t.Parallel()

	cache, err := field.NewParseCache(64)
	require.NoError(t, err)
	defer cache.Close()

	progress := &recordingProgress{}
	b := NewBuilder(&memoryFields{records: sampleRecords()}, nil, WithProgress(progress), WithParseCache(cache))

	first, err := b.Build(context.Background(), nil)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, first.Edges, second.Edges)
	assert.Len(t, second.Diagnostics, 1, "cached parse errors are still reported")

	hits, _ := cache.Stats()
	assert.Positive(t, hits)

	assert.Equal(t, 7, progress.total)
	assert.Len(t, progress.processed, 14)
	assert.True(t, progress.completed)
	assert.Equal(t, 7, progress.fields)
	assert.Equal(t, 3, progress.edges)
}
