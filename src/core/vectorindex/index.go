package vectorindex

import (
	"context"
	"errors"

	"github.com/pkumv1/AgenticAI-1/src/core/chunk"
)

var ErrNoChunks = errors.New("cannot build an index from an empty chunk set")

// Embedder turns text into a fixed-dimension vector. Identical input
// must yield identical vectors within one session so that query and
// chunk scores are comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Scored pairs a chunk with its similarity to the query text.
type Scored struct {
	Chunk chunk.Chunk
	Score float32
}

// Index answers nearest-neighbor queries over one artifact's chunks.
// Indexes are read-only after construction and safe for concurrent
// queries. One index per artifact; indexes are never merged.
type Index interface {
	// Query returns up to k chunks ordered by descending similarity.
	Query(ctx context.Context, text string, k int) ([]Scored, error)
	// Size reports the number of indexed chunks.
	Size() int
}

// Builder embeds a chunk set and constructs an index over it. Build
// fails with ErrNoChunks on empty input and must not leave a partial
// index behind.
type Builder interface {
	Build(ctx context.Context, chunks []chunk.Chunk) (Index, error)
}

// Destroyer is implemented by indexes that hold external resources;
// session teardown releases them through it.
type Destroyer interface {
	Destroy(ctx context.Context) error
}
