package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
)

// SDK wraps the Elasticsearch client with the index and vector
// operations the chunk store needs.
type SDK struct {
	client *elasticsearch.Client
}

func NewSDK(client *elasticsearch.Client) *SDK {
	return &SDK{
		client: client,
	}
}

// Live reports whether the cluster answers a ping.
func (e *SDK) Live(ctx context.Context) bool {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// CreateIndex creates a chunk index with a dense_vector mapping using
// cosine similarity. Indices are one per artifact and never reused, so
// an existing index with the same name is an error.
func (e *SDK) CreateIndex(ctx context.Context, name string, dims int) error {
	exists, err := e.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	if exists {
		return fmt.Errorf("index %s already exists", name)
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"content": map[string]interface{}{"type": "text"},
				"source":  map[string]interface{}{"type": "keyword"},
				"seq":     map[string]interface{}{"type": "integer"},
				"vector": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       dims,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(mapping); err != nil {
		return fmt.Errorf("failed to encode index mapping: %w", err)
	}

	res, err := e.client.Indices.Create(
		name,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(&body),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to create index: %s", responseError(res.Body, res.Status()))
	}

	return nil
}

// IndexExists checks whether an index is present.
func (e *SDK) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := e.client.Indices.Exists(
		[]string{name},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

// DeleteIndex deletes an index and every document in it.
func (e *SDK) DeleteIndex(ctx context.Context, name string) error {
	res, err := e.client.Indices.Delete(
		[]string{name},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to delete index: %s", responseError(res.Body, res.Status()))
	}

	return nil
}

// Document is one chunk with its vector as stored in an index.
type Document struct {
	Content string    `json:"content"`
	Source  string    `json:"source"`
	Seq     int       `json:"seq"`
	Vector  []float32 `json:"vector"`
}

// BulkAddVectors imports the documents in a single bulk request and
// waits for them to become searchable.
func (e *SDK) BulkAddVectors(ctx context.Context, name string, docs []Document) error {
	var body bytes.Buffer
	for _, doc := range docs {
		body.WriteString(`{"index":{}}` + "\n")
		line, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		body.Write(line)
		body.WriteByte('\n')
	}

	res, err := e.client.Bulk(
		bytes.NewReader(body.Bytes()),
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithIndex(name),
		e.client.Bulk.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk import: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to bulk import: %s", responseError(res.Body, res.Status()))
	}

	var bulk struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return fmt.Errorf("failed to parse bulk response: %w", err)
	}
	if bulk.Errors {
		return fmt.Errorf("bulk import rejected one or more documents")
	}

	return nil
}

// QueryResult is one kNN hit. Score is Elasticsearch's normalized
// cosine score (higher is better).
type QueryResult struct {
	Content string
	Source  string
	Seq     int
	Score   float64
}

// QueryVectors runs a kNN search over an index.
func (e *SDK) QueryVectors(ctx context.Context, name string, vector []float32, k int) ([]QueryResult, error) {
	query := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": k * 10,
		},
		"_source": []string{"content", "source", "seq"},
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode search body: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(name),
		e.client.Search.WithBody(&body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("failed to search: %s", responseError(res.Body, res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64  `json:"_score"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]QueryResult, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		results = append(results, QueryResult{
			Content: hit.Source.Content,
			Source:  hit.Source.Source,
			Seq:     hit.Source.Seq,
			Score:   hit.Score,
		})
	}
	return results, nil
}

// responseError folds an error response body into a short message.
func responseError(body io.Reader, status string) string {
	raw, err := io.ReadAll(io.LimitReader(body, 512))
	if err != nil || len(raw) == 0 {
		return status
	}
	return fmt.Sprintf("%s: %s", status, raw)
}
