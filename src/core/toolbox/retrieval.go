package toolbox

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pkumv1/AgenticAI-1/src/core/vectorindex"
	"github.com/pkumv1/AgenticAI-1/src/log"
)

const DefaultTopK = 4

// LLM produces a grounded answer from a prompt.
type LLM interface {
	Reasoning(ctx context.Context, system, prompt string) (string, error)
}

// RetrievalTool answers sub-queries about one ingested artifact by
// retrieving the most similar chunks and stuffing them into a grounded
// answering prompt.
type RetrievalTool struct {
	name        string
	description string
	index       vectorindex.Index
	llm         LLM
	topK        int
}

func NewRetrievalTool(source string, index vectorindex.Index, llm LLM, topK int) *RetrievalTool {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RetrievalTool{
		name:        "QA Tool - " + source,
		description: fmt.Sprintf("Use this to answer questions from %s.", source),
		index:       index,
		llm:         llm,
		topK:        topK,
	}
}

func (t *RetrievalTool) Name() string {
	return t.name
}

func (t *RetrievalTool) Description() string {
	return t.description
}

func (t *RetrievalTool) Call(ctx context.Context, query string) (string, error) {
	results, err := t.index.Query(ctx, query, t.topK)
	if err != nil {
		return "", fmt.Errorf("failed to search index: %w", err)
	}
	if len(results) == 0 {
		return "No relevant passages were found for this query.", nil
	}
	log.Debug("retrieved passages", "tool", t.name, "count", len(results), "topScore", results[0].Score)

	passages := make([]string, 0, len(results))
	for _, r := range results {
		passages = append(passages, r.Chunk.Text)
	}

	prompt, err := renderTemplate("retrieval", RetrievalPromptTmpl, RetrievalData{
		Question: query,
		Passages: passages,
	})
	if err != nil {
		return "", err
	}

	answer, err := t.llm.Reasoning(ctx, RetrievalSystemTmpl, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func renderTemplate(name, tmpl string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := template.Must(template.New(name).Parse(tmpl)).Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
