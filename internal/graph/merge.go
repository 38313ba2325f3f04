package graph

// edgeKey identifies a propagation path. Edges sharing it are duplicates.
type edgeKey struct {
	from string
	to   string
	kind EdgeKind
	link string
}

func keyOf(e Edge) edgeKey {
	return edgeKey{from: e.FromFieldID, to: e.ToFieldID, kind: e.Kind, link: e.LinkFieldID}
}

// MergeEdges unions reference edges with derived edges. Derived edges are
// inserted first and the first edge seen for a key is kept, so a derived edge
// always replaces a reference edge on the same path. Edges that differ in kind
// or link field are separate paths and are all kept.
func MergeEdges(reference, derived []Edge) []Edge {
	seen := make(map[edgeKey]struct{}, len(derived)+len(reference))
	merged := make([]Edge, 0, len(derived)+len(reference))

	add := func(edges []Edge) {
		for _, e := range edges {
			k := keyOf(e)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			merged = append(merged, e)
		}
	}
	add(derived)
	add(reference)

	return merged
}
