package tableflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
	"github.com/pkumv1/AgenticAI-1/src/log"
)

const (
	DefaultSampleRows     = 5
	DefaultMaxPlanRetries = 1
)

// LLMProvider is the completion surface the flow needs.
type LLMProvider interface {
	Reasoning(ctx context.Context, system, prompt string) (string, error)
}

// TableFlow answers a question against one in-memory table: the model
// emits a query plan, the plan runs against the rows, and the result
// is phrased back as an answer. Malformed or unanswerable questions
// yield a textual explanation, never a pipeline failure.
type TableFlow struct {
	llm            LLMProvider
	sampleRows     int
	maxPlanRetries int
}

type Option func(f *TableFlow)

// WithSampleRows bounds how many data rows the plan prompt shows.
func WithSampleRows(n int) Option {
	return func(f *TableFlow) {
		f.sampleRows = n
	}
}

// WithMaxPlanRetries bounds the re-asks after an unparseable plan.
func WithMaxPlanRetries(n int) Option {
	return func(f *TableFlow) {
		f.maxPlanRetries = n
	}
}

func NewTableFlow(llm LLMProvider, opts ...Option) *TableFlow {
	f := &TableFlow{
		llm:            llm,
		sampleRows:     DefaultSampleRows,
		maxPlanRetries: DefaultMaxPlanRetries,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Answer runs the plan-and-execute loop. Only LLM transport failures
// surface as errors; everything else resolves to text the agent can
// observe.
func (f *TableFlow) Answer(ctx context.Context, table *artifact.Table, question string) (string, error) {
	plan, lastReply, err := f.generatePlan(ctx, table, question)
	if err != nil {
		return "", err
	}
	if plan == nil {
		return fmt.Sprintf("Could not turn the question into a table query. The model replied: %s", truncate(lastReply, 200)), nil
	}

	result, err := ExecutePlan(table, plan)
	if err != nil {
		return fmt.Sprintf("The table query failed: %v. Available columns: %s.", err, strings.Join(table.Columns, ", ")), nil
	}
	log.Debug("table plan executed", "filters", len(plan.Filters), "aggregate", plan.Aggregate != nil)

	summary, err := f.summarize(ctx, question, result)
	if err != nil {
		log.Error(err, "failed to summarize table result, returning raw result")
		return result, nil
	}
	return summary, nil
}

func (f *TableFlow) generatePlan(ctx context.Context, table *artifact.Table, question string) (*QueryPlan, string, error) {
	data := PlanData{
		Columns:  table.Columns,
		Sample:   sampleRows(table, f.sampleRows),
		Question: question,
	}

	var lastReply string
	for attempt := 0; attempt <= f.maxPlanRetries; attempt++ {
		prompt, err := renderTemplate("plan", PlanPromptTmpl, data)
		if err != nil {
			return nil, "", err
		}

		reply, err := f.llm.Reasoning(ctx, PlanSystemTmpl, prompt)
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate query plan: %w", err)
		}
		lastReply = reply

		plan := &QueryPlan{}
		if err := json.Unmarshal([]byte(extractJSON(reply)), plan); err != nil {
			log.Debug("query plan parse failed", "attempt", attempt, "error", err.Error())
			data.ParseError = err.Error()
			continue
		}
		return plan, lastReply, nil
	}
	return nil, lastReply, nil
}

func (f *TableFlow) summarize(ctx context.Context, question, result string) (string, error) {
	prompt, err := renderTemplate("summary", SummaryPromptTmpl, SummaryData{
		Question: question,
		Result:   result,
	})
	if err != nil {
		return "", err
	}

	summary, err := f.llm.Reasoning(ctx, SummarySystemTmpl, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize result: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

func sampleRows(table *artifact.Table, n int) []string {
	if n > len(table.Rows) {
		n = len(table.Rows)
	}
	rows := make([]string, 0, n)
	for _, row := range table.Rows[:n] {
		rows = append(rows, strings.Join(row, " | "))
	}
	return rows
}

// extractJSON cuts the first balanced-looking JSON object out of a
// reply that may wrap it in code fences or prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func truncate(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}

func renderTemplate(name, tmpl string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := template.Must(template.New(name).Parse(tmpl)).Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
