package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/mvp-joe/fieldgraph/internal/field"
)

// ErrFieldNotFound is returned when a query names a field absent from the graph.
var ErrFieldNotFound = errors.New("field not found in dependency graph")

// Direction selects which side of an edge a query follows.
type Direction string

const (
	// DirectionDependents follows edges forward: fields recomputed when the target changes.
	DirectionDependents Direction = "dependents"
	// DirectionDependencies follows edges backward: fields the target is computed from.
	DirectionDependencies Direction = "dependencies"
)

// ImpactResult is one field reached by a query.
type ImpactResult struct {
	FieldID string     `json:"fieldId"`
	TableID string     `json:"tableId,omitempty"`
	Type    field.Type `json:"type,omitempty"`
	Depth   int        `json:"depth"`
	// Via is the first edge found on the path to this field.
	Via Edge `json:"via"`
	// Paths holds every edge between Via's endpoints, in graph order. It has
	// more than one entry when several link fields connect the same pair.
	Paths []Edge `json:"paths,omitempty"`
}

// Index answers reachability queries over a merged dependency graph.
// Cycles are walked at most once per field and are not reported.
type Index struct {
	graph        graph.Graph[string, string]
	fields       map[string]*field.Meta
	dependents   map[string]map[string]graph.Edge[string]
	dependencies map[string]map[string]graph.Edge[string]
	paths        map[[2]string][]Edge
}

// NewIndex loads data into an in-memory directed graph. Edge endpoints that
// are not in data.FieldsByID (fields of tables outside the build) become
// vertices without metadata.
func NewIndex(data *GraphData) (*Index, error) {
	g := graph.New(graph.StringHash, graph.Directed())

	addVertex := func(id string) error {
		if err := g.AddVertex(id); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return fmt.Errorf("failed to add field %s: %w", id, err)
		}
		return nil
	}

	ids := make([]string, 0, len(data.FieldsByID))
	for id := range data.FieldsByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := addVertex(id); err != nil {
			return nil, err
		}
	}

	paths := make(map[[2]string][]Edge)
	for _, e := range data.Edges {
		pair := [2]string{e.FromFieldID, e.ToFieldID}
		paths[pair] = append(paths[pair], e)

		if err := addVertex(e.FromFieldID); err != nil {
			return nil, err
		}
		if err := addVertex(e.ToFieldID); err != nil {
			return nil, err
		}
		// The graph keeps the first edge of a pair; the rest live in paths.
		err := g.AddEdge(e.FromFieldID, e.ToFieldID,
			graph.EdgeAttribute("kind", string(e.Kind)),
			graph.EdgeData(e),
		)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("failed to add edge %s -> %s: %w", e.FromFieldID, e.ToFieldID, err)
		}
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to build adjacency map: %w", err)
	}
	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to build predecessor map: %w", err)
	}

	return &Index{
		graph:        g,
		fields:       data.FieldsByID,
		dependents:   adjacency,
		dependencies: predecessors,
		paths:        paths,
	}, nil
}

// Order returns the number of fields in the index.
func (idx *Index) Order() int {
	n, err := idx.graph.Order()
	if err != nil {
		return len(idx.dependents)
	}
	return n
}

// Dependents returns the fields that must be recomputed when fieldID changes,
// up to maxDepth hops (maxDepth <= 0 means unbounded).
func (idx *Index) Dependents(fieldID string, maxDepth int) ([]ImpactResult, error) {
	return idx.Query(fieldID, DirectionDependents, maxDepth)
}

// Dependencies returns the fields that fieldID is computed from.
func (idx *Index) Dependencies(fieldID string, maxDepth int) ([]ImpactResult, error) {
	return idx.Query(fieldID, DirectionDependencies, maxDepth)
}

// Query walks the graph breadth-first from fieldID. Results are ordered by
// depth, then field id.
func (idx *Index) Query(fieldID string, dir Direction, maxDepth int) ([]ImpactResult, error) {
	var adjacency map[string]map[string]graph.Edge[string]
	switch dir {
	case DirectionDependents:
		adjacency = idx.dependents
	case DirectionDependencies:
		adjacency = idx.dependencies
	default:
		return nil, fmt.Errorf("unknown direction %q", dir)
	}
	if _, ok := adjacency[fieldID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, fieldID)
	}

	visited := map[string]bool{fieldID: true}
	frontier := []string{fieldID}
	results := []ImpactResult{}

	for depth := 1; len(frontier) > 0 && (maxDepth <= 0 || depth <= maxDepth); depth++ {
		var next []string
		for _, current := range frontier {
			neighbors := make([]string, 0, len(adjacency[current]))
			for n := range adjacency[current] {
				neighbors = append(neighbors, n)
			}
			sort.Strings(neighbors)

			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				next = append(next, n)
				results = append(results, idx.result(n, depth, adjacency[current][n]))
			}
		}
		frontier = next
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Depth != results[j].Depth {
			return results[i].Depth < results[j].Depth
		}
		return results[i].FieldID < results[j].FieldID
	})
	return results, nil
}

func (idx *Index) result(fieldID string, depth int, e graph.Edge[string]) ImpactResult {
	res := ImpactResult{FieldID: fieldID, Depth: depth}
	if via, ok := e.Properties.Data.(Edge); ok {
		res.Via = via
		res.Paths = idx.paths[[2]string{via.FromFieldID, via.ToFieldID}]
	}
	if meta, ok := idx.fields[fieldID]; ok {
		res.TableID = meta.TableID
		res.Type = meta.Type
	}
	return res
}
