package refineflow

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pkumv1/AgenticAI-1/src/log"
)

// LLMProvider is the completion surface the flow needs.
type LLMProvider interface {
	Reasoning(ctx context.Context, system, prompt string) (string, error)
}

// RefineFlow runs a drafted answer through a reflection pass and an
// improvement pass. It is attached behind the reasoning agent for
// callers that want polished final answers at the cost of two more
// model calls.
type RefineFlow struct {
	llm LLMProvider
}

func NewRefineFlow(llm LLMProvider) *RefineFlow {
	return &RefineFlow{llm: llm}
}

// Refine critiques the draft against the question and rewrites it.
func (rf *RefineFlow) Refine(ctx context.Context, question, draft string) (string, error) {
	critique, err := rf.reflectOnDraft(ctx, question, draft)
	if err != nil {
		return "", fmt.Errorf("failed to get critique: %w", err)
	}

	improved, err := rf.improveDraft(ctx, question, draft, critique)
	if err != nil {
		return "", fmt.Errorf("failed to get improved answer: %w", err)
	}
	return strings.TrimSpace(improved), nil
}

func (rf *RefineFlow) reflectOnDraft(ctx context.Context, question, draft string) (string, error) {
	log.Debug("reflecting on draft answer")

	prompt, err := executeTemplate(ReflectionPromptTmpl, TemplateData{
		Question: question,
		Draft:    draft,
	})
	if err != nil {
		return "", err
	}

	critique, err := rf.llm.Reasoning(ctx, ReflectionSystemTmpl, prompt)
	if err != nil {
		return "", err
	}

	log.Debug("reflection complete")
	return critique, nil
}

func (rf *RefineFlow) improveDraft(ctx context.Context, question, draft, critique string) (string, error) {
	log.Debug("improving draft answer")

	prompt, err := executeTemplate(ImprovementPromptTmpl, TemplateData{
		Question: question,
		Draft:    draft,
		Critique: critique,
	})
	if err != nil {
		return "", err
	}

	improved, err := rf.llm.Reasoning(ctx, ImprovementSystemTmpl, prompt)
	if err != nil {
		return "", err
	}

	log.Debug("improvement complete")
	return improved, nil
}

func executeTemplate(tmpl string, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := template.Must(template.New("refine").Parse(tmpl)).Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// ExecuteTemplateForTest exposes template rendering for tests.
func ExecuteTemplateForTest(tmpl string, data TemplateData) (string, error) {
	return executeTemplate(tmpl, data)
}
