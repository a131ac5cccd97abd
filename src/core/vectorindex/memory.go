package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pkumv1/AgenticAI-1/src/core/chunk"
)

// MemoryBuilder builds in-process cosine similarity indexes, the
// default backend.
type MemoryBuilder struct {
	embedder Embedder
}

func NewMemoryBuilder(embedder Embedder) *MemoryBuilder {
	return &MemoryBuilder{embedder: embedder}
}

func (b *MemoryBuilder) Build(ctx context.Context, chunks []chunk.Chunk) (Index, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	idx := &memoryIndex{
		embedder: b.embedder,
		chunks:   append([]chunk.Chunk(nil), chunks...),
		vectors:  make([][]float32, 0, len(chunks)),
		norms:    make([]float64, 0, len(chunks)),
	}

	for _, c := range chunks {
		vec, err := b.embedder.Embed(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d of %s: %w", c.Seq, c.Source, err)
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("embedder returned an empty vector for chunk %d of %s", c.Seq, c.Source)
		}
		if len(idx.vectors) > 0 && len(vec) != len(idx.vectors[0]) {
			return nil, fmt.Errorf("embedding dimension changed from %d to %d within %s", len(idx.vectors[0]), len(vec), c.Source)
		}
		idx.vectors = append(idx.vectors, vec)
		idx.norms = append(idx.norms, norm(vec))
	}
	return idx, nil
}

type memoryIndex struct {
	embedder Embedder
	chunks   []chunk.Chunk
	vectors  [][]float32
	norms    []float64
}

func (m *memoryIndex) Size() int {
	return len(m.chunks)
}

func (m *memoryIndex) Query(ctx context.Context, text string, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, fmt.Errorf("query limit must be positive, got %d", k)
	}

	queryVec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryNorm := norm(queryVec)

	scored := make([]Scored, len(m.chunks))
	for i := range m.chunks {
		scored[i] = Scored{
			Chunk: m.chunks[i],
			Score: cosine(queryVec, queryNorm, m.vectors[i], m.norms[i]),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float32 {
	if aNorm == 0 || bNorm == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (aNorm * bNorm))
}
