package weaviate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/pkumv1/AgenticAI-1/src/core/chunk"
	"github.com/pkumv1/AgenticAI-1/src/core/vectorindex"
	"github.com/pkumv1/AgenticAI-1/src/log"
)

// Builder builds one Weaviate class per artifact and queries it by
// vector. Classes are session-scoped: teardown deletes them, and they
// are never reused across sessions.
type Builder struct {
	sdk      *SDK
	embedder vectorindex.Embedder
	hybrid   bool
}

type BuilderOption func(b *Builder)

// WithHybridQueries scores queries with the hybrid (vector + BM25)
// search instead of plain nearVector similarity.
func WithHybridQueries() BuilderOption {
	return func(b *Builder) {
		b.hybrid = true
	}
}

func NewBuilder(sdk *SDK, embedder vectorindex.Embedder, opts ...BuilderOption) *Builder {
	b := &Builder{
		sdk:      sdk,
		embedder: embedder,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Build(ctx context.Context, chunks []chunk.Chunk) (vectorindex.Index, error) {
	if len(chunks) == 0 {
		return nil, vectorindex.ErrNoChunks
	}

	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vec, err := b.embedder.Embed(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d of %s: %w", c.Seq, c.Source, err)
		}
		vectors[i] = vec
	}

	className := NewClassName()
	properties := []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		{Name: "source", DataType: []string{"text"}},
		{Name: "seq", DataType: []string{"int"}},
	}
	if err := b.sdk.CreateSchema(ctx, className, properties, "none"); err != nil {
		return nil, fmt.Errorf("failed to create class for %s: %w", chunks[0].Source, err)
	}

	objects := make([]VectorObject, len(chunks))
	for i, c := range chunks {
		objects[i] = VectorObject{
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"content": c.Text,
				"source":  c.Source,
				"seq":     c.Seq,
			},
		}
	}
	if err := b.sdk.BatchAddVectors(ctx, className, objects); err != nil {
		// The half-filled class must not stay visible.
		if derr := b.sdk.DeleteSchema(ctx, className); derr != nil {
			log.Error(derr, "failed to delete class after import failure", "class", className)
		}
		return nil, fmt.Errorf("failed to import chunks of %s: %w", chunks[0].Source, err)
	}

	log.Debug("weaviate index built", "class", className, "chunks", len(chunks))
	return &Index{
		sdk:       b.sdk,
		embedder:  b.embedder,
		className: className,
		size:      len(chunks),
		hybrid:    b.hybrid,
	}, nil
}

// NewClassName returns a fresh per-artifact class name. Weaviate class
// names must start with an upper-case letter.
func NewClassName() string {
	return "Artifact_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Index is one artifact's chunk class. Read-only after Build; Destroy
// drops the class at session teardown.
type Index struct {
	sdk       *SDK
	embedder  vectorindex.Embedder
	className string
	size      int
	hybrid    bool
}

func (i *Index) Size() int {
	return i.size
}

func (i *Index) Query(ctx context.Context, text string, k int) ([]vectorindex.Scored, error) {
	if k <= 0 {
		return nil, fmt.Errorf("query limit must be positive, got %d", k)
	}

	vec, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	fields := []string{"content", "source", "seq"}
	var results []QueryResult
	if i.hybrid {
		results, err = i.sdk.QueryHybrid(ctx, i.className, vec, HybridConfig{
			Query:  text,
			Fields: fields,
			Limit:  k,
		})
	} else {
		results, err = i.sdk.QueryVectors(ctx, i.className, vec, QueryConfig{
			Fields: fields,
			Limit:  k,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query class %s: %w", i.className, err)
	}

	scored := make([]vectorindex.Scored, 0, len(results))
	for _, r := range results {
		scored = append(scored, vectorindex.Scored{
			Chunk: chunkFromProperties(r.Properties),
			Score: scoreOf(r, i.hybrid),
		})
	}
	return scored, nil
}

func (i *Index) Destroy(ctx context.Context) error {
	if err := i.sdk.DeleteSchema(ctx, i.className); err != nil {
		return fmt.Errorf("failed to delete class %s: %w", i.className, err)
	}
	return nil
}

func chunkFromProperties(props map[string]interface{}) chunk.Chunk {
	c := chunk.Chunk{}
	if v, ok := props["content"].(string); ok {
		c.Text = v
	}
	if v, ok := props["source"].(string); ok {
		c.Source = v
	}
	if v, ok := props["seq"].(float64); ok {
		c.Seq = int(v)
	}
	return c
}

// scoreOf normalizes both query styles to "higher is better": hybrid
// results already carry a score, nearVector results carry a cosine
// distance.
func scoreOf(r QueryResult, hybrid bool) float32 {
	if hybrid {
		return float32(r.Score)
	}
	return float32(1 - r.Distance)
}
