package graph

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mvp-joe/fieldgraph/internal/field"
)

// GraphProgressReporter reports progress during graph building.
type GraphProgressReporter interface {
	OnGraphBuildingStart(totalFields int)
	OnGraphFieldProcessed(processedFields, totalFields int, fieldID string)
	OnGraphBuildingComplete(fieldCount, edgeCount int, duration time.Duration)
}

// FieldSource loads persisted field rows.
type FieldSource interface {
	// LoadFields returns the field rows of the given tables.
	LoadFields(ctx context.Context, tableIDs []string) ([]field.Record, error)
}

// ReferenceSource loads previously recorded reference edges, such as formula references.
type ReferenceSource interface {
	// LoadReferenceEdges returns the reference edges pointing at any of the given fields.
	LoadReferenceEdges(ctx context.Context, toFieldIDs []string) ([]Edge, error)
}

// Builder assembles the field dependency graph of a set of tables.
type Builder interface {
	// Build loads fields and references for tableIDs and returns the merged graph.
	// Fields with unusable configuration are reported in GraphData.Diagnostics.
	Build(ctx context.Context, tableIDs []string) (*GraphData, error)
}

// builder implements Builder.
type builder struct {
	fields     FieldSource
	references ReferenceSource
	cache      *field.ParseCache
	progress   GraphProgressReporter
}

// BuilderOption configures a Builder.
type BuilderOption func(*builder)

// WithProgress configures progress reporting.
func WithProgress(progress GraphProgressReporter) BuilderOption {
	return func(b *builder) {
		b.progress = progress
	}
}

// WithParseCache reuses parsed options across builds.
func WithParseCache(cache *field.ParseCache) BuilderOption {
	return func(b *builder) {
		b.cache = cache
	}
}

// NewBuilder creates a new graph builder. references may be nil, in which
// case only derived edges are returned.
func NewBuilder(fields FieldSource, references ReferenceSource, opts ...BuilderOption) Builder {
	b := &builder{
		fields:     fields,
		references: references,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build loads, parses and merges the dependency graph for tableIDs.
func (b *builder) Build(ctx context.Context, tableIDs []string) (*GraphData, error) {
	startTime := time.Now()

	records, err := b.fields.LoadFields(ctx, tableIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load fields: %w", err)
	}

	if b.progress != nil {
		b.progress.OnGraphBuildingStart(len(records))
	}

	data := &GraphData{FieldsByID: make(map[string]*field.Meta, len(records))}
	metas := make([]*field.Meta, 0, len(records))
	fieldIDs := make([]string, 0, len(records))

	for i, rec := range records {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		meta, err := b.fromRecord(rec)
		if err != nil {
			log.Printf("Warning: skipping dependencies of field %s (%s): %s", rec.ID, rec.Type, field.DescribeError(err))
			data.Diagnostics = append(data.Diagnostics, Diagnostic{
				FieldID: rec.ID,
				TableID: rec.TableID,
				Type:    rec.Type,
				Message: field.DescribeError(err),
			})
		}

		if _, dup := data.FieldsByID[meta.ID]; dup {
			log.Printf("Warning: duplicate field id %s in table %s, keeping first", meta.ID, meta.TableID)
		} else {
			data.FieldsByID[meta.ID] = meta
			metas = append(metas, meta)
			fieldIDs = append(fieldIDs, meta.ID)
		}

		if b.progress != nil {
			b.progress.OnGraphFieldProcessed(i+1, len(records), rec.ID)
		}
	}

	derived := BuildDerivedEdges(metas)

	var reference []Edge
	if b.references != nil && len(fieldIDs) > 0 {
		reference, err = b.references.LoadReferenceEdges(ctx, fieldIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load reference edges: %w", err)
		}
	}

	data.Edges = MergeEdges(reference, derived)

	if b.progress != nil {
		b.progress.OnGraphBuildingComplete(len(data.FieldsByID), len(data.Edges), time.Since(startTime))
	}

	return data, nil
}

func (b *builder) fromRecord(rec field.Record) (*field.Meta, error) {
	if b.cache != nil {
		return b.cache.FromRecord(rec)
	}
	return field.FromRecord(rec)
}
