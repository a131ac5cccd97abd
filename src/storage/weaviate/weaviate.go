package weaviate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// SDK wraps the Weaviate client with the schema and vector operations
// the index backend needs.
type SDK struct {
	client *weaviate.Client
}

func NewSDK(client *weaviate.Client) *SDK {
	return &SDK{
		client: client,
	}
}

// Live reports whether the Weaviate instance answers its liveness
// probe.
func (w *SDK) Live(ctx context.Context) bool {
	live, err := w.client.Misc().LiveChecker().Do(ctx)
	return err == nil && live
}

// CreateSchema creates a new class. Classes are one per artifact and
// never reused, so an existing class with the same name is an error,
// not something to adopt.
func (w *SDK) CreateSchema(ctx context.Context, className string, properties []*models.Property, vectorizer string) error {
	exists, err := w.ClassExists(ctx, className)
	if err != nil {
		return fmt.Errorf("failed to check if class exists: %v", err)
	}
	if exists {
		return fmt.Errorf("class %s already exists", className)
	}

	class := &models.Class{
		Class:      className,
		Properties: properties,
		Vectorizer: vectorizer,
	}

	if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create Weaviate class: %v", err)
	}

	return nil
}

// ClassExists checks if a class exists in the schema.
func (w *SDK) ClassExists(ctx context.Context, className string) (bool, error) {
	schema, err := w.client.Schema().Getter().Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get schema: %v", err)
	}

	for _, class := range schema.Classes {
		if class.Class == className {
			return true, nil
		}
	}

	return false, nil
}

// DeleteSchema deletes a class and every object in it.
func (w *SDK) DeleteSchema(ctx context.Context, className string) error {
	if err := w.client.Schema().ClassDeleter().WithClassName(className).Do(ctx); err != nil {
		return fmt.Errorf("failed to delete Weaviate class: %v", err)
	}

	return nil
}

// VectorObject is one object with its vector and properties.
type VectorObject struct {
	Vector     []float32
	Properties map[string]interface{}
}

// BatchAddVectors imports the objects in a single batch.
func (w *SDK) BatchAddVectors(ctx context.Context, className string, objects []VectorObject) error {
	objs := make([]*models.Object, len(objects))
	for i, obj := range objects {
		objs[i] = &models.Object{
			Class:      className,
			Properties: obj.Properties,
			Vector:     obj.Vector,
		}
	}

	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to batch add vectors: %v", err)
	}
	if len(resp) == 0 {
		return fmt.Errorf("batch operation returned no results")
	}

	return nil
}

// QueryConfig configures a nearVector search.
type QueryConfig struct {
	Fields []string
	Limit  int
}

const DefaultQueryLimit = 20

// QueryResult is one returned object. Distance is set by nearVector
// queries (lower is closer), Score by hybrid queries (higher is
// better).
type QueryResult struct {
	ID         string
	Distance   float64
	Score      float64
	Properties map[string]interface{}
}

// QueryVectors runs a nearVector similarity search in a class.
func (w *SDK) QueryVectors(ctx context.Context, className string, vector []float32, config QueryConfig) ([]QueryResult, error) {
	fields := make([]graphql.Field, len(config.Fields))
	for i, field := range config.Fields {
		fields[i] = graphql.Field{Name: field}
	}
	fields = append(fields, graphql.Field{Name: "_additional { id distance }"})

	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	if config.Limit <= 0 {
		config.Limit = DefaultQueryLimit
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(className).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(config.Limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %v", err)
	}

	return parseGetResults(result, className, "distance"), nil
}

// parseGetResults flattens a GraphQL Get response. scoreKey selects
// which _additional value lands in which result field.
func parseGetResults(result *models.GraphQLResponse, className, scoreKey string) []QueryResult {
	var queryResults []QueryResult

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return queryResults
	}
	objects, ok := data[className].([]interface{})
	if !ok {
		return queryResults
	}

	for _, obj := range objects {
		objMap, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		qr := QueryResult{Properties: make(map[string]interface{})}
		for k, v := range objMap {
			if k != "_additional" {
				qr.Properties[k] = v
			}
		}

		if additional, ok := objMap["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				qr.ID = id
			}
			// Hybrid scores arrive as JSON strings on some server versions.
			var value float64
			switch v := additional[scoreKey].(type) {
			case float64:
				value = v
			case string:
				value, _ = strconv.ParseFloat(v, 64)
			}
			if scoreKey == "distance" {
				qr.Distance = value
			} else {
				qr.Score = value
			}
		}

		queryResults = append(queryResults, qr)
	}

	return queryResults
}
