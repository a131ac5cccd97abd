package tableflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pkumv1/AgenticAI-1/src/core/tableflow"
)

// scriptedLLM pops one reply per Reasoning call.
type scriptedLLM struct {
	replies []string
	err     error
	prompts []string
}

func (s *scriptedLLM) Reasoning(_ context.Context, _, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func TestTableFlowAnswer(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"```json\n{\"aggregate\": {\"func\": \"count\"}, \"filters\": [{\"column\": \"city\", \"op\": \"eq\", \"value\": \"Chennai\"}]}\n```",
		"There are 2 hotels in Chennai.",
	}}
	flow := tableflow.NewTableFlow(llm)

	got, err := flow.Answer(context.Background(), hotelsTable(), "How many hotels are in Chennai?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "There are 2 hotels in Chennai." {
		t.Errorf("Answer() = %q, want the summarized count", got)
	}
	if len(llm.prompts) != 2 {
		t.Fatalf("LLM called %d times, want 2 (plan + summary)", len(llm.prompts))
	}
	if !strings.Contains(llm.prompts[0], "city") || !strings.Contains(llm.prompts[0], "How many hotels are in Chennai?") {
		t.Error("plan prompt is missing the columns or the question")
	}
	if !strings.Contains(llm.prompts[1], "count: 2") {
		t.Errorf("summary prompt = %q, want the executed result in it", llm.prompts[1])
	}
}

func TestTableFlowUnparseablePlan(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"I think you should filter by city.",
		"Still not JSON, sorry.",
	}}
	flow := tableflow.NewTableFlow(llm, tableflow.WithMaxPlanRetries(1))

	got, err := flow.Answer(context.Background(), hotelsTable(), "How many hotels?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !strings.Contains(got, "Could not turn the question into a table query") {
		t.Errorf("Answer() = %q, want an explanation of the parse failure", got)
	}
	if len(llm.prompts) != 2 {
		t.Errorf("LLM called %d times, want initial attempt plus one retry", len(llm.prompts))
	}
	if !strings.Contains(llm.prompts[1], "could not be parsed") {
		t.Error("retry prompt does not mention the parse failure")
	}
}

func TestTableFlowBadPlanColumns(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"{\"filters\": [{\"column\": \"stars\", \"op\": \"eq\", \"value\": \"5\"}]}",
	}}
	flow := tableflow.NewTableFlow(llm)

	got, err := flow.Answer(context.Background(), hotelsTable(), "Five star hotels?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !strings.Contains(got, "The table query failed") || !strings.Contains(got, "Available columns") {
		t.Errorf("Answer() = %q, want the execution failure explained with the column list", got)
	}
}

func TestTableFlowLLMFailure(t *testing.T) {
	cause := errors.New("rate limited")
	flow := tableflow.NewTableFlow(&scriptedLLM{err: cause})

	_, err := flow.Answer(context.Background(), hotelsTable(), "How many hotels?")
	if !errors.Is(err, cause) {
		t.Errorf("Answer() error = %v, want wrapped %v", err, cause)
	}
}

func TestTableFlowSummaryFailureFallsBack(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"{\"aggregate\": {\"func\": \"max\", \"column\": \"rating\"}}",
	}}
	flow := tableflow.NewTableFlow(llm)

	got, err := flow.Answer(context.Background(), hotelsTable(), "Best rating?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "max of rating: 4.8" {
		t.Errorf("Answer() = %q, want the raw query result when summarization fails", got)
	}
}
