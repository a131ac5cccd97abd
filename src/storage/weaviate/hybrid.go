package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
)

// DefaultAlpha weights hybrid scoring at 75% vector similarity, 25%
// BM25.
const DefaultAlpha float32 = 0.75

// HybridConfig configures a hybrid (vector + BM25) search.
type HybridConfig struct {
	Query  string
	Alpha  float32
	Fields []string
	Limit  int
}

// QueryHybrid combines vector similarity with BM25 over the query
// text. Results carry the hybrid score instead of a distance.
func (w *SDK) QueryHybrid(ctx context.Context, className string, vector []float32, config HybridConfig) ([]QueryResult, error) {
	fields := make([]graphql.Field, len(config.Fields))
	for i, field := range config.Fields {
		fields[i] = graphql.Field{Name: field}
	}
	fields = append(fields, graphql.Field{Name: "_additional { id score }"})

	alpha := config.Alpha
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	hybrid := w.client.GraphQL().HybridArgumentBuilder().
		WithVector(vector).
		WithQuery(config.Query).
		WithAlpha(alpha)

	limit := config.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(className).
		WithFields(fields...).
		WithHybrid(hybrid).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run hybrid query: %v", err)
	}

	return parseGetResults(result, className, "score"), nil
}
