package groq

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"

	temperature = 0.7
	maxTokens   = 1024
)

// Provider runs reasoning on Groq through its OpenAI-compatible API.
// Groq serves completions only; embeddings stay on the local provider.
type Provider struct {
	llm *openai.LLM
}

type Option func(*settings)

type settings struct {
	baseURL string
}

// WithBaseURL points the provider at a different endpoint.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		if baseURL != "" {
			s.baseURL = baseURL
		}
	}
}

func NewProvider(apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	s := settings{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&s)
	}

	llm, err := openai.New(
		openai.WithBaseURL(s.baseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create groq client: %w", err)
	}

	return &Provider{llm: llm}, nil
}

func (p *Provider) Reasoning(ctx context.Context, system string, prompt string) (string, error) {
	resp, err := p.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, system),
			llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		},
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Content, nil
}
