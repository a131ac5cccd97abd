package agentflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
	"github.com/pkumv1/AgenticAI-1/src/core/toolbox"
)

type scriptedLLM struct {
	replies []string
	prompts []string
	calls   int
}

func (s *scriptedLLM) Reasoning(_ context.Context, _ string, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type stubTool struct {
	name        string
	description string
	reply       string
	err         error
	inputs      []string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return s.description }

func (s *stubTool) Call(_ context.Context, input string) (string, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubRefiner struct {
	refined  string
	err      error
	question string
	draft    string
}

func (s *stubRefiner) Refine(_ context.Context, question, draft string) (string, error) {
	s.question = question
	s.draft = draft
	if s.err != nil {
		return "", s.err
	}
	return s.refined, nil
}

func newRegistry(t *testing.T, tools ...*stubTool) *toolbox.Registry {
	t.Helper()
	registry := toolbox.NewRegistry()
	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	return registry
}

func TestAnswerFinishesWithRetrievedFact(t *testing.T) {
	tool := &stubTool{
		name:        "QA Tool - conference.txt",
		description: "Use this to answer questions from conference.txt.",
		reply:       "The conference starts on 9 March.",
	}
	llm := &scriptedLLM{replies: []string{
		"Thought: I need the start date\nAction: QA Tool - conference.txt\nAction Input: conference start date",
		"Thought: I can answer now\nFinal Answer: The conference starts on 9 March.",
	}}

	flow := agentflow.NewAgentFlow(llm, newRegistry(t, tool))
	answer, err := flow.Answer(context.Background(), "When does the conference start?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if answer.State != agentflow.StateFinished {
		t.Errorf("State = %q, want %q", answer.State, agentflow.StateFinished)
	}
	if !strings.Contains(answer.Text, "9 March") {
		t.Errorf("Text = %q, want it to contain the retrieved date", answer.Text)
	}
	if len(answer.Steps) != 1 {
		t.Fatalf("len(Steps) = %d, want 1", len(answer.Steps))
	}

	step := answer.Steps[0]
	if step.Tool != tool.name {
		t.Errorf("Steps[0].Tool = %q, want %q", step.Tool, tool.name)
	}
	if step.Observation != tool.reply {
		t.Errorf("Steps[0].Observation = %q, want %q", step.Observation, tool.reply)
	}
	if len(tool.inputs) != 1 || tool.inputs[0] != "conference start date" {
		t.Errorf("tool inputs = %v, want the sub-query from the model", tool.inputs)
	}
	if len(llm.prompts) != 2 || !strings.Contains(llm.prompts[1], tool.reply) {
		t.Errorf("second prompt should carry the observation, got %d prompts", len(llm.prompts))
	}
}

func TestAnswerAbortsAfterBudget(t *testing.T) {
	tool := &stubTool{
		name:        "QA Tool - flaky.txt",
		description: "Use this to answer questions from flaky.txt.",
		err:         errors.New("backend unreachable"),
	}
	action := "Action: QA Tool - flaky.txt\nAction Input: anything"
	llm := &scriptedLLM{replies: []string{action, action, action}}

	flow := agentflow.NewAgentFlow(llm, newRegistry(t, tool), agentflow.WithMaxIterations(3))
	answer, err := flow.Answer(context.Background(), "What does flaky.txt say?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if answer.State != agentflow.StateAborted {
		t.Errorf("State = %q, want %q", answer.State, agentflow.StateAborted)
	}
	if len(answer.Steps) != 3 {
		t.Errorf("len(Steps) = %d, want exactly the iteration budget", len(answer.Steps))
	}
	if llm.calls != 3 {
		t.Errorf("llm calls = %d, want 3", llm.calls)
	}
	if !strings.Contains(answer.Text, "could not be completed") {
		t.Errorf("Text = %q, want a could-not-complete result", answer.Text)
	}
	for i, step := range answer.Steps {
		if !strings.Contains(step.Observation, "backend unreachable") {
			t.Errorf("Steps[%d].Observation = %q, want the tool failure", i, step.Observation)
		}
	}
}

func TestAnswerAbortsOnUnparseableReplies(t *testing.T) {
	tool := &stubTool{name: "QA Tool - a.txt", description: "Use this to answer questions from a.txt."}
	llm := &scriptedLLM{replies: []string{
		"I cannot decide.",
		"Still rambling without a format.",
		"No action here either.",
	}}

	flow := agentflow.NewAgentFlow(llm, newRegistry(t, tool))
	answer, err := flow.Answer(context.Background(), "Anything?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if answer.State != agentflow.StateAborted {
		t.Errorf("State = %q, want %q", answer.State, agentflow.StateAborted)
	}
	if llm.calls != 3 {
		t.Errorf("llm calls = %d, want initial ask plus two reformulations", llm.calls)
	}
	if len(answer.Steps) != 0 {
		t.Errorf("len(Steps) = %d, want 0", len(answer.Steps))
	}
	if !strings.Contains(llm.prompts[1], "could not be understood") {
		t.Errorf("retry prompt should carry the reformulation note, got %q", llm.prompts[1])
	}
}

func TestAnswerShortCircuitsOnEmptyRegistry(t *testing.T) {
	llm := &scriptedLLM{}

	flow := agentflow.NewAgentFlow(llm, toolbox.NewRegistry())
	answer, err := flow.Answer(context.Background(), "Is anything there?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if answer.State != agentflow.StateAborted {
		t.Errorf("State = %q, want %q", answer.State, agentflow.StateAborted)
	}
	if !strings.Contains(answer.Text, "nothing to query") {
		t.Errorf("Text = %q, want a nothing-to-query result", answer.Text)
	}
	if llm.calls != 0 {
		t.Errorf("llm calls = %d, want 0", llm.calls)
	}
}

func TestAnswerRecoversFromUnknownTool(t *testing.T) {
	tool := &stubTool{
		name:        "QA Tool - real.txt",
		description: "Use this to answer questions from real.txt.",
		reply:       "It opens at nine.",
	}
	llm := &scriptedLLM{replies: []string{
		"Action: QA Tool - imaginary.txt\nAction Input: opening time",
		"Action: QA Tool - real.txt\nAction Input: opening time",
		"Final Answer: It opens at nine.",
	}}

	flow := agentflow.NewAgentFlow(llm, newRegistry(t, tool))
	answer, err := flow.Answer(context.Background(), "When does it open?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if answer.State != agentflow.StateFinished {
		t.Errorf("State = %q, want %q", answer.State, agentflow.StateFinished)
	}
	if len(answer.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(answer.Steps))
	}
	if !strings.Contains(answer.Steps[0].Observation, "unknown tool") {
		t.Errorf("Steps[0].Observation = %q, want the unknown tool failure", answer.Steps[0].Observation)
	}
	if answer.Steps[1].Observation != tool.reply {
		t.Errorf("Steps[1].Observation = %q, want %q", answer.Steps[1].Observation, tool.reply)
	}
}

func TestAnswerRefinesFinalAnswer(t *testing.T) {
	tool := &stubTool{name: "QA Tool - a.txt", description: "Use this to answer questions from a.txt."}
	refiner := &stubRefiner{refined: "The conference starts on Monday, 9 March."}
	llm := &scriptedLLM{replies: []string{"Final Answer: 9 March"}}

	flow := agentflow.NewAgentFlow(llm, newRegistry(t, tool), agentflow.WithRefiner(refiner))
	answer, err := flow.Answer(context.Background(), "When does the conference start?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if answer.Text != refiner.refined {
		t.Errorf("Text = %q, want the refined answer", answer.Text)
	}
	if refiner.draft != "9 March" {
		t.Errorf("refiner draft = %q, want the raw final answer", refiner.draft)
	}
}

func TestAnswerKeepsDraftWhenRefinerFails(t *testing.T) {
	tool := &stubTool{name: "QA Tool - a.txt", description: "Use this to answer questions from a.txt."}
	refiner := &stubRefiner{err: errors.New("refiner down")}
	llm := &scriptedLLM{replies: []string{"Final Answer: 9 March"}}

	flow := agentflow.NewAgentFlow(llm, newRegistry(t, tool), agentflow.WithRefiner(refiner))
	answer, err := flow.Answer(context.Background(), "When does the conference start?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if answer.Text != "9 March" {
		t.Errorf("Text = %q, want the unrefined draft", answer.Text)
	}
	if answer.State != agentflow.StateFinished {
		t.Errorf("State = %q, want %q", answer.State, agentflow.StateFinished)
	}
}

func TestRenderPrompt(t *testing.T) {
	flow := agentflow.NewAgentFlow(&scriptedLLM{}, toolbox.NewRegistry())

	prompt, err := flow.RenderPromptForTest(agentflow.PromptData{
		Question: "When does the conference start?",
		Tools: []toolbox.Listing{
			{Name: "QA Tool - conference.txt", Description: "Use this to answer questions from conference.txt."},
		},
		Steps: []agentflow.Step{
			{Iteration: 1, Thought: "look it up", Tool: "QA Tool - conference.txt", Input: "start date", Observation: "9 March"},
		},
		ParseNote: agentflow.RetryNote,
	})
	if err != nil {
		t.Fatalf("RenderPromptForTest() error = %v", err)
	}

	for _, want := range []string{
		"QA Tool - conference.txt: Use this to answer questions from conference.txt.",
		"Question: When does the conference start?",
		"Observation: 9 March",
		"could not be understood",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
