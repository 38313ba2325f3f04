package graph

import "github.com/mvp-joe/fieldgraph/internal/field"

// BuildLookupEdges returns the two edges of a lookup field: one from its own
// link field and one from the foreign source field reached through that link.
func BuildLookupEdges(fieldID, tableID string, opts *field.LookupOptions) []Edge {
	return lookupShapedEdges(fieldID, tableID, opts, SemanticLookupSource)
}

// BuildRollupEdges is BuildLookupEdges with the rollup source semantic.
func BuildRollupEdges(fieldID, tableID string, opts *field.LookupOptions) []Edge {
	return lookupShapedEdges(fieldID, tableID, opts, SemanticRollupSource)
}

func lookupShapedEdges(fieldID, tableID string, opts *field.LookupOptions, source EdgeSemantic) []Edge {
	return []Edge{
		{
			FromFieldID: opts.LinkFieldID,
			ToFieldID:   fieldID,
			FromTableID: tableID,
			ToTableID:   tableID,
			Kind:        EdgeSameRecord,
			Semantic:    SemanticLookupLink,
		},
		{
			FromFieldID: opts.LookupFieldID,
			ToFieldID:   fieldID,
			FromTableID: opts.ForeignTableID,
			ToTableID:   tableID,
			Kind:        EdgeCrossRecord,
			LinkFieldID: opts.LinkFieldID,
			Semantic:    source,
		},
	}
}

// BuildLinkEdges returns the title edge of a link field. The link field is its
// own traversal path.
func BuildLinkEdges(fieldID, tableID string, opts *field.LinkOptions) []Edge {
	return []Edge{{
		FromFieldID: opts.LookupFieldID,
		ToFieldID:   fieldID,
		FromTableID: opts.ForeignTableID,
		ToTableID:   tableID,
		Kind:        EdgeCrossRecord,
		LinkFieldID: fieldID,
		Semantic:    SemanticLinkTitle,
	}}
}

// BuildConditionalEdges returns one edge from the looked-up foreign field plus
// one per distinct filter field, since a change to any of them can change the
// matched record set. None of them carries a link field.
func BuildConditionalEdges(fieldID, tableID string, fieldType field.Type, opts *field.ConditionalOptions) []Edge {
	semantic := SemanticConditionalLookupSource
	if fieldType == field.TypeConditionalRollup {
		semantic = SemanticConditionalRollupSource
	}
	edge := func(from string) Edge {
		return Edge{
			FromFieldID: from,
			ToFieldID:   fieldID,
			FromTableID: opts.ForeignTableID,
			ToTableID:   tableID,
			Kind:        EdgeCrossRecord,
			Semantic:    semantic,
		}
	}

	edges := make([]Edge, 0, 1+len(opts.ConditionFieldIDs))
	edges = append(edges, edge(opts.LookupFieldID))
	seen := map[string]bool{opts.LookupFieldID: true}
	for _, id := range opts.ConditionFieldIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		edges = append(edges, edge(id))
	}
	return edges
}

// BuildDerivedEdgesFromField returns the edges implied by a field's own
// configuration. Non-computed fields and fields without usable options
// contribute nothing.
func BuildDerivedEdgesFromField(meta *field.Meta) []Edge {
	if meta == nil || !meta.IsComputed {
		return nil
	}

	switch opts := meta.Options.(type) {
	case *field.LookupOptions:
		switch meta.Type {
		case field.TypeLookup:
			return BuildLookupEdges(meta.ID, meta.TableID, opts)
		case field.TypeRollup:
			return BuildRollupEdges(meta.ID, meta.TableID, opts)
		}
	case *field.LinkOptions:
		if meta.Type == field.TypeLink {
			return BuildLinkEdges(meta.ID, meta.TableID, opts)
		}
	case *field.ConditionalOptions:
		if meta.Type.IsConditional() {
			return BuildConditionalEdges(meta.ID, meta.TableID, meta.Type, opts)
		}
	}
	return nil
}

// BuildDerivedEdges concatenates the derived edges of every field in order.
func BuildDerivedEdges(fields []*field.Meta) []Edge {
	var edges []Edge
	for _, meta := range fields {
		edges = append(edges, BuildDerivedEdgesFromField(meta)...)
	}
	return edges
}
