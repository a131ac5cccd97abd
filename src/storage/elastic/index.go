package elastic

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkumv1/AgenticAI-1/src/core/chunk"
	"github.com/pkumv1/AgenticAI-1/src/core/vectorindex"
	"github.com/pkumv1/AgenticAI-1/src/log"
)

// Builder builds one Elasticsearch index per artifact and queries it
// with kNN search. Indices are session-scoped: teardown deletes them,
// and they are never reused across sessions.
type Builder struct {
	sdk      *SDK
	embedder vectorindex.Embedder
}

func NewBuilder(sdk *SDK, embedder vectorindex.Embedder) *Builder {
	return &Builder{
		sdk:      sdk,
		embedder: embedder,
	}
}

func (b *Builder) Build(ctx context.Context, chunks []chunk.Chunk) (vectorindex.Index, error) {
	if len(chunks) == 0 {
		return nil, vectorindex.ErrNoChunks
	}

	docs := make([]Document, len(chunks))
	for i, c := range chunks {
		vec, err := b.embedder.Embed(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d of %s: %w", c.Seq, c.Source, err)
		}
		docs[i] = Document{
			Content: c.Text,
			Source:  c.Source,
			Seq:     c.Seq,
			Vector:  vec,
		}
	}

	name := NewIndexName()
	if err := b.sdk.CreateIndex(ctx, name, len(docs[0].Vector)); err != nil {
		return nil, fmt.Errorf("failed to create index for %s: %w", chunks[0].Source, err)
	}

	if err := b.sdk.BulkAddVectors(ctx, name, docs); err != nil {
		// The half-filled index must not stay visible.
		if derr := b.sdk.DeleteIndex(ctx, name); derr != nil {
			log.Error(derr, "failed to delete index after import failure", "index", name)
		}
		return nil, fmt.Errorf("failed to import chunks of %s: %w", chunks[0].Source, err)
	}

	log.Debug("elasticsearch index built", "index", name, "chunks", len(chunks))
	return &Index{
		sdk:      b.sdk,
		embedder: b.embedder,
		name:     name,
		size:     len(chunks),
	}, nil
}

// NewIndexName returns a fresh per-artifact index name. Elasticsearch
// index names must be lower case.
func NewIndexName() string {
	return "artifact-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Index is one artifact's chunk index. Read-only after Build; Destroy
// drops the index at session teardown.
type Index struct {
	sdk      *SDK
	embedder vectorindex.Embedder
	name     string
	size     int
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

	results, err := i.sdk.QueryVectors(ctx, i.name, vec, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query index %s: %w", i.name, err)
	}

	scored := make([]vectorindex.Scored, 0, len(results))
	for _, r := range results {
		scored = append(scored, vectorindex.Scored{
			Chunk: chunk.Chunk{
				Source: r.Source,
				Seq:    r.Seq,
				Text:   r.Content,
			},
			Score: float32(r.Score),
		})
	}
	return scored, nil
}

func (i *Index) Destroy(ctx context.Context) error {
	if err := i.sdk.DeleteIndex(ctx, i.name); err != nil {
		return fmt.Errorf("failed to delete index %s: %w", i.name, err)
	}
	return nil
}
