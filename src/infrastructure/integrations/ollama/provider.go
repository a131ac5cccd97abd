package ollama

import (
	"context"
)

// Provider adapts the client to the reasoning interface the flows
// consume.
type Provider struct {
	client    *Client
	modelName string
}

func NewProvider(client *Client, modelName string) *Provider {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Provider{
		client:    client,
		modelName: modelName,
	}
}

func (p *Provider) Reasoning(ctx context.Context, system string, prompt string) (string, error) {
	return p.client.Generate(ctx, p.modelName, system, prompt, map[string]interface{}{
		"temperature": 0.7,
		"top_p":       0.9,
	})
}

// Embedder adapts the client to the vector index embedding interface.
// One session must keep one embed model: mixing models mixes vector
// spaces.
type Embedder struct {
	client    *Client
	modelName string
}

func NewEmbedder(client *Client, modelName string) *Embedder {
	if modelName == "" {
		modelName = DefaultEmbedModel
	}
	return &Embedder{
		client:    client,
		modelName: modelName,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.client.GetEmbedding(ctx, e.modelName, text)
}
