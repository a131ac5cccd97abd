package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/pkumv1/AgenticAI-1/src/log"
)

const (
	DefaultURL        = "http://localhost:11434"
	DefaultModel      = "phi4"
	DefaultEmbedModel = "nomic-embed-text"
)

// Client wraps the Ollama API client with the calls this repo needs:
// non-streaming generation, embeddings and a model listing for health
// checks.
type Client struct {
	api *api.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama url %q: %w", baseURL, err)
	}

	return &Client{api: api.NewClient(parsed, httpClient)}, nil
}

// Generate runs one completion and returns the full response text.
func (c *Client) Generate(ctx context.Context, model, system, prompt string, options map[string]interface{}) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   model,
		System:  system,
		Prompt:  prompt,
		Stream:  &stream,
		Options: options,
	}

	var response strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		log.Error(err, "failed to generate completion", "model", model)
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response received from ollama")
	}
	return response.String(), nil
}

// GetEmbedding embeds one text with the given model.
func (c *Client) GetEmbedding(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := c.api.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	embedding := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// Models lists the locally available model names. Used as the health
// probe.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
