package graph

import "github.com/mvp-joe/fieldgraph/internal/field"

// EdgeKind tells the propagation engine whether reaching the dependent value
// requires crossing to other records.
type EdgeKind string

const (
	EdgeSameRecord  EdgeKind = "same_record"
	EdgeCrossRecord EdgeKind = "cross_record"
)

// EdgeSemantic describes why an edge exists. It is diagnostic only and never
// changes how an edge is propagated.
type EdgeSemantic string

const (
	SemanticFormulaRef              EdgeSemantic = "formula_ref"
	SemanticLookupSource            EdgeSemantic = "lookup_source"
	SemanticLookupLink              EdgeSemantic = "lookup_link"
	SemanticLookupFilter            EdgeSemantic = "lookup_filter"
	SemanticLinkTitle               EdgeSemantic = "link_title"
	SemanticRollupSource            EdgeSemantic = "rollup_source"
	SemanticRollupFilter            EdgeSemantic = "rollup_filter"
	SemanticConditionalRollupSource EdgeSemantic = "conditional_rollup_source"
	SemanticConditionalLookupSource EdgeSemantic = "conditional_lookup_source"
)

// Edge means a change to FromFieldID requires recomputing ToFieldID.
type Edge struct {
	FromFieldID string   `json:"fromFieldId"`
	ToFieldID   string   `json:"toFieldId"`
	FromTableID string   `json:"fromTableId"`
	ToTableID   string   `json:"toTableId"`
	Kind        EdgeKind `json:"kind"`
	// LinkFieldID is the link field traversed by a cross_record edge, when known.
	LinkFieldID string       `json:"linkFieldId,omitempty"`
	Semantic    EdgeSemantic `json:"semantic,omitempty"`
}

// Diagnostic records a field whose configuration could not be used.
type Diagnostic struct {
	FieldID string     `json:"fieldId"`
	TableID string     `json:"tableId"`
	Type    field.Type `json:"type"`
	Message string     `json:"message"`
}

// GraphData is the dependency graph handed to the recomputation scheduler.
// It is rebuilt for every computation and never persisted.
type GraphData struct {
	FieldsByID  map[string]*field.Meta `json:"fieldsById"`
	Edges       []Edge                 `json:"edges"`
	Diagnostics []Diagnostic           `json:"diagnostics,omitempty"`
}
