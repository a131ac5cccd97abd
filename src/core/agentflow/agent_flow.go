package agentflow

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pkumv1/AgenticAI-1/src/core/toolbox"
	"github.com/pkumv1/AgenticAI-1/src/log"
)

const (
	DefaultMaxIterations   = 8
	DefaultMaxParseRetries = 2
)

// State is the terminal state of an answered question.
type State string

const (
	StateFinished State = "finished"
	StateAborted  State = "aborted"
)

// Step records one thinking/action cycle.
type Step struct {
	Iteration   int    `json:"iteration"`
	Thought     string `json:"thought"`
	Tool        string `json:"tool"`
	Input       string `json:"input"`
	Observation string `json:"observation"`
}

// Answer is the outcome of one question. Text is always set, whether
// the run finished or aborted.
type Answer struct {
	Text  string `json:"text"`
	State State  `json:"state"`
	Steps []Step `json:"steps,omitempty"`
}

type LLMProvider interface {
	Reasoning(ctx context.Context, system string, prompt string) (string, error)
}

// Toolbox is the agent's action space. *toolbox.Registry satisfies it.
type Toolbox interface {
	List() []toolbox.Listing
	Len() int
	Invoke(ctx context.Context, name string, input string) (string, error)
}

// Refiner post-processes a draft final answer.
type Refiner interface {
	Refine(ctx context.Context, question string, draft string) (string, error)
}

type AgentFlow struct {
	llmProvider     LLMProvider
	tools           Toolbox
	maxIterations   int
	maxParseRetries int
	refiner         Refiner
}

func NewAgentFlow(llmProvider LLMProvider, tools Toolbox, opts ...Option) *AgentFlow {
	af := &AgentFlow{
		llmProvider:     llmProvider,
		tools:           tools,
		maxIterations:   DefaultMaxIterations,
		maxParseRetries: DefaultMaxParseRetries,
	}

	for _, opt := range opts {
		opt(af)
	}

	return af
}

type Option func(af *AgentFlow)

// WithMaxIterations caps the number of thinking/action cycles spent on
// one question. Values below one are ignored.
func WithMaxIterations(maxIterations int) Option {
	return func(af *AgentFlow) {
		if maxIterations > 0 {
			af.maxIterations = maxIterations
		}
	}
}

// WithMaxParseRetries caps how often an unparseable reply is re-asked
// before the question aborts.
func WithMaxParseRetries(maxParseRetries int) Option {
	return func(af *AgentFlow) {
		if maxParseRetries >= 0 {
			af.maxParseRetries = maxParseRetries
		}
	}
}

// WithRefiner runs every final answer through a refinement pass.
func WithRefiner(refiner Refiner) Option {
	return func(af *AgentFlow) {
		af.refiner = refiner
	}
}

// Answer runs the reasoning loop for one question. It always returns
// an Answer with text; the error is reserved for broken prompt
// rendering, not for model or tool failures, which are folded into the
// loop as observations.
func (af *AgentFlow) Answer(ctx context.Context, question string) (*Answer, error) {
	if af.tools.Len() == 0 {
		log.Info("no tools registered, nothing to query", "question", question)
		return &Answer{
			Text:  "There is nothing to query: no artifacts have been ingested yet.",
			State: StateAborted,
		}, nil
	}

	listings := af.tools.List()
	var steps []Step

	for iteration := 1; iteration <= af.maxIterations; iteration++ {
		result, err := af.think(ctx, question, listings, steps)
		if err != nil {
			return nil, err
		}

		switch r := result.(type) {
		case FinalAnswer:
			log.Debug("agent finished", "iteration", iteration, "thought", r.Thought)
			return &Answer{
				Text:  af.refine(ctx, question, r.Text),
				State: StateFinished,
				Steps: steps,
			}, nil

		case ToolChoice:
			observation := af.act(ctx, r)
			steps = append(steps, Step{
				Iteration:   iteration,
				Thought:     r.Thought,
				Tool:        r.Tool,
				Input:       r.Input,
				Observation: observation,
			})

		case Unparseable:
			log.Info("aborting, model replies stayed unparseable", "iteration", iteration)
			return &Answer{
				Text:  "The question could not be completed: the model did not produce a usable reasoning step.",
				State: StateAborted,
				Steps: steps,
			}, nil
		}
	}

	log.Info("iteration budget exhausted", "question", question, "max_iterations", af.maxIterations)
	return &Answer{
		Text:  af.partialAnswer(steps),
		State: StateAborted,
		Steps: steps,
	}, nil
}

// think asks the model for the next step, re-asking up to
// maxParseRetries times when the reply fits neither legal form or the
// call itself fails.
func (af *AgentFlow) think(ctx context.Context, question string, listings []toolbox.Listing, steps []Step) (ParseResult, error) {
	var result ParseResult = Unparseable{}

	for attempt := 0; attempt <= af.maxParseRetries; attempt++ {
		note := ""
		if attempt > 0 {
			note = RetryNote
			log.Debug("reformulating after unparseable reply", "attempt", attempt)
		}

		prompt, err := af.renderPrompt(PromptData{
			Question:  question,
			Tools:     listings,
			Steps:     steps,
			ParseNote: note,
		})
		if err != nil {
			return nil, err
		}

		reply, err := af.llmProvider.Reasoning(ctx, SystemTmpl, prompt)
		if err != nil {
			log.Error(err, "failed to get reasoning step", "attempt", attempt)
			result = Unparseable{Reply: fmt.Sprintf("model call failed: %v", err)}
			continue
		}
		log.Debug("reasoning reply", "reply", reply)

		result = ParseReply(reply)
		if _, unparseable := result.(Unparseable); !unparseable {
			return result, nil
		}
	}

	return result, nil
}

// act invokes the chosen tool. Failures, including an unknown tool
// name, become the observation so the model can correct course.
func (af *AgentFlow) act(ctx context.Context, choice ToolChoice) string {
	log.Debug("invoking tool", "tool", choice.Tool, "input", choice.Input)

	observation, err := af.tools.Invoke(ctx, choice.Tool, choice.Input)
	if err != nil {
		log.Error(err, "tool invocation failed", "tool", choice.Tool)
		return err.Error()
	}

	observation = strings.TrimSpace(observation)
	if observation == "" {
		return "The tool returned no output."
	}
	return observation
}

func (af *AgentFlow) refine(ctx context.Context, question, draft string) string {
	if af.refiner == nil {
		return draft
	}

	refined, err := af.refiner.Refine(ctx, question, draft)
	if err != nil {
		log.Error(err, "failed to refine answer, keeping draft")
		return draft
	}
	return refined
}

// partialAnswer builds the best-effort text for an exhausted run from
// whatever the tools reported along the way.
func (af *AgentFlow) partialAnswer(steps []Step) string {
	for i := len(steps) - 1; i >= 0; i-- {
		if obs := strings.TrimSpace(steps[i].Observation); obs != "" {
			return fmt.Sprintf(
				"The answer could not be completed within the iteration budget. The last thing found was: %s",
				obs,
			)
		}
	}
	return "The answer could not be completed within the iteration budget, and no useful observations were collected."
}

func (af *AgentFlow) renderPrompt(data PromptData) (string, error) {
	var buf bytes.Buffer

	tmpl := template.Must(template.New("question").Parse(QuestionPromptTmpl))
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute question template: %w", err)
	}

	return buf.String(), nil
}

func (af *AgentFlow) RenderPromptForTest(data PromptData) (string, error) {
	return af.renderPrompt(data)
}
