package toolbox_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pkumv1/AgenticAI-1/src/core/chunk"
	"github.com/pkumv1/AgenticAI-1/src/core/toolbox"
	"github.com/pkumv1/AgenticAI-1/src/core/vectorindex"
)

type stubTool struct {
	name   string
	desc   string
	result string
	err    error
	calls  int
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return s.desc }

func (s *stubTool) Call(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.result, s.err
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	r := toolbox.NewRegistry()

	if err := r.Register(&stubTool{name: "QA Tool - a.pdf"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	err := r.Register(&stubTool{name: "QA Tool - a.pdf"})
	if !errors.Is(err, toolbox.ErrDuplicateTool) {
		t.Errorf("Register(duplicate) error = %v, want ErrDuplicateTool", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d after duplicate registration, want 1", r.Len())
	}
}

func TestRegistryListOrder(t *testing.T) {
	r := toolbox.NewRegistry()
	names := []string{"QA Tool - z.pdf", "Spreadsheet - a.csv", "QA Tool - m.txt"}
	for _, name := range names {
		if err := r.Register(&stubTool{name: name, desc: "about " + name}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	listings := r.List()
	if len(listings) != len(names) {
		t.Fatalf("List() returned %d entries, want %d", len(listings), len(names))
	}
	for i, l := range listings {
		if l.Name != names[i] {
			t.Errorf("List()[%d].Name = %q, want %q (insertion order)", i, l.Name, names[i])
		}
		if l.Description == "" {
			t.Errorf("List()[%d] has an empty description", i)
		}
	}
}

func TestRegistryInvoke(t *testing.T) {
	r := toolbox.NewRegistry()
	tool := &stubTool{name: "QA Tool - a.pdf", result: "the answer"}
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := r.Invoke(context.Background(), "QA Tool - a.pdf", "what?")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if got != "the answer" || tool.calls != 1 {
		t.Errorf("Invoke() = %q with %d calls, want %q with 1 call", got, tool.calls, "the answer")
	}

	if _, err := r.Invoke(context.Background(), "QA Tool - missing.pdf", "what?"); !errors.Is(err, toolbox.ErrUnknownTool) {
		t.Errorf("Invoke(unknown) error = %v, want ErrUnknownTool", err)
	}
}

func TestRegistryInvokeToolFailure(t *testing.T) {
	r := toolbox.NewRegistry()
	cause := errors.New("backend unavailable")
	if err := r.Register(&stubTool{name: "QA Tool - a.pdf", err: cause}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := r.Invoke(context.Background(), "QA Tool - a.pdf", "what?")
	if !errors.Is(err, cause) {
		t.Errorf("Invoke() error = %v, want wrapped %v", err, cause)
	}
}

type stubIndex struct {
	results []vectorindex.Scored
	err     error
}

func (s *stubIndex) Query(_ context.Context, _ string, k int) ([]vectorindex.Scored, error) {
	if s.err != nil {
		return nil, s.err
	}
	if k > len(s.results) {
		k = len(s.results)
	}
	return s.results[:k], nil
}

func (s *stubIndex) Size() int { return len(s.results) }

type promptRecorder struct {
	answer string
	system string
	prompt string
}

func (p *promptRecorder) Reasoning(_ context.Context, system, prompt string) (string, error) {
	p.system = system
	p.prompt = prompt
	return p.answer, nil
}

func TestRetrievalToolCall(t *testing.T) {
	index := &stubIndex{results: []vectorindex.Scored{
		{Chunk: chunk.Chunk{Source: "conf.txt", Seq: 0, Text: "The conference starts on 9 March."}, Score: 0.92},
	}}
	llm := &promptRecorder{answer: "It starts on 9 March."}
	tool := toolbox.NewRetrievalTool("conf.txt", index, llm, 4)

	if tool.Name() != "QA Tool - conf.txt" {
		t.Errorf("Name() = %q, want %q", tool.Name(), "QA Tool - conf.txt")
	}
	if !strings.Contains(tool.Description(), "conf.txt") {
		t.Errorf("Description() = %q, want the source name in it", tool.Description())
	}

	got, err := tool.Call(context.Background(), "When does the conference start?")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "It starts on 9 March." {
		t.Errorf("Call() = %q, want the model answer", got)
	}
	if !strings.Contains(llm.prompt, "The conference starts on 9 March.") {
		t.Error("prompt does not contain the retrieved passage")
	}
	if !strings.Contains(llm.prompt, "When does the conference start?") {
		t.Error("prompt does not contain the question")
	}
}

func TestRetrievalToolNoHits(t *testing.T) {
	tool := toolbox.NewRetrievalTool("conf.txt", &stubIndex{}, &promptRecorder{}, 4)

	got, err := tool.Call(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !strings.Contains(got, "No relevant passages") {
		t.Errorf("Call() with no hits = %q, want a stated inability", got)
	}
}
