package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
	"github.com/pkumv1/AgenticAI-1/src/core/chunk"
	"github.com/pkumv1/AgenticAI-1/src/core/session"
	"github.com/pkumv1/AgenticAI-1/src/core/vectorindex"
)

// histEmbedder maps text to a letter histogram so similar strings get
// similar vectors without a model.
type histEmbedder struct{}

func (histEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 27)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		} else {
			vec[26]++
		}
	}
	return vec, nil
}

type scriptedLLM struct {
	replies []string
	prompts []string
}

func (s *scriptedLLM) Reasoning(_ context.Context, _ string, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type recordingArchive struct {
	keys []string
}

func (a *recordingArchive) Archive(_ context.Context, sessionID, name string, _ []byte) error {
	a.keys = append(a.keys, sessionID+"/"+name)
	return nil
}

func newService(t *testing.T, llm session.LLMProvider, opts ...session.Option) *session.Service {
	t.Helper()

	splitter, err := chunk.NewWindowSplitter(chunk.DefaultSize, chunk.DefaultOverlap)
	if err != nil {
		t.Fatalf("NewWindowSplitter() error = %v", err)
	}

	svc, err := session.NewService(
		llm,
		artifact.NewExtractor(),
		splitter,
		vectorindex.NewMemoryBuilder(histEmbedder{}),
		opts...,
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := session.NewService(nil, artifact.NewExtractor(), nil, nil)
	if err == nil {
		t.Fatal("NewService() error = nil, want dependency validation failure")
	}
}

func TestIngestMixedBatch(t *testing.T) {
	svc := newService(t, &scriptedLLM{})
	sess, err := svc.Create(context.Background(), "mixed")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	report, err := svc.Ingest(context.Background(), sess.ID, []artifact.Artifact{
		artifact.New("conference.txt", []byte("The conference starts on 9 March. It runs for three days.")),
		artifact.New("mystery.xyz", []byte("whatever")),
		artifact.New("sales.csv", []byte("city,revenue\nTaipei,1200\nOsaka,900\n")),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if len(report.Ingested) != 2 {
		t.Fatalf("len(Ingested) = %d, want 2: %+v", len(report.Ingested), report)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Name != "mystery.xyz" {
		t.Fatalf("Skipped = %+v, want mystery.xyz", report.Skipped)
	}
	if report.Skipped[0].Reason == "" {
		t.Error("skip reason should be reported")
	}

	tools := sess.Tools()
	if len(tools) != 2 {
		t.Fatalf("len(Tools) = %d, want 2", len(tools))
	}
	if tools[0].Name != "QA Tool - conference.txt" {
		t.Errorf("Tools[0].Name = %q", tools[0].Name)
	}
	if tools[1].Name != "Spreadsheet - sales.csv" {
		t.Errorf("Tools[1].Name = %q", tools[1].Name)
	}
}

func TestIngestDuplicateNameSkipsSecond(t *testing.T) {
	svc := newService(t, &scriptedLLM{}, session.WithIngestWorkers(1))
	sess, _ := svc.Create(context.Background(), "dup")

	report, err := svc.Ingest(context.Background(), sess.ID, []artifact.Artifact{
		artifact.New("notes.txt", []byte("first upload")),
		artifact.New("notes.txt", []byte("second upload")),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if len(report.Ingested) != 1 || len(report.Skipped) != 1 {
		t.Fatalf("report = %+v, want one ingested and one skipped", report)
	}
	if !strings.Contains(report.Skipped[0].Reason, "already registered") {
		t.Errorf("Reason = %q, want duplicate tool failure", report.Skipped[0].Reason)
	}
}

func TestIngestArchivesUploads(t *testing.T) {
	archive := &recordingArchive{}
	svc := newService(t, &scriptedLLM{}, session.WithArchive(archive))
	sess, _ := svc.Create(context.Background(), "archived")

	_, err := svc.Ingest(context.Background(), sess.ID, []artifact.Artifact{
		artifact.New("conference.txt", []byte("The conference starts on 9 March.")),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if len(archive.keys) != 1 || archive.keys[0] != sess.ID+"/conference.txt" {
		t.Errorf("archive keys = %v", archive.keys)
	}
}

func TestAskAnswersFromIngestedArtifact(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"Thought: check the document\nAction: QA Tool - conference.txt\nAction Input: conference start date",
		"The conference starts on 9 March.",
		"Thought: I can answer now\nFinal Answer: The conference starts on 9 March.",
	}}
	svc := newService(t, llm)
	sess, _ := svc.Create(context.Background(), "qa")

	if _, err := svc.Ingest(context.Background(), sess.ID, []artifact.Artifact{
		artifact.New("conference.txt", []byte("The conference starts on 9 March. Registration opens at 8am.")),
	}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	answer, err := svc.Ask(context.Background(), sess.ID, "When does the conference start?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if answer.State != agentflow.StateFinished {
		t.Errorf("State = %q, want %q", answer.State, agentflow.StateFinished)
	}
	if !strings.Contains(answer.Text, "9 March") {
		t.Errorf("Text = %q, want the retrieved date", answer.Text)
	}
	if len(answer.Steps) != 1 || answer.Steps[0].Tool != "QA Tool - conference.txt" {
		t.Errorf("Steps = %+v", answer.Steps)
	}
}

func TestAskOnEmptySession(t *testing.T) {
	llm := &scriptedLLM{}
	svc := newService(t, llm)
	sess, _ := svc.Create(context.Background(), "empty")

	answer, err := svc.Ask(context.Background(), sess.ID, "Anything?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.State != agentflow.StateAborted || !strings.Contains(answer.Text, "nothing to query") {
		t.Errorf("answer = %+v, want the nothing-to-query result", answer)
	}
	if len(llm.prompts) != 0 {
		t.Errorf("llm prompts = %d, want 0", len(llm.prompts))
	}
}

func TestAnswerDirectStuffsAllArtifacts(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"The conference starts on 9 March."}}
	svc := newService(t, llm)
	sess, _ := svc.Create(context.Background(), "direct")

	if _, err := svc.Ingest(context.Background(), sess.ID, []artifact.Artifact{
		artifact.New("conference.txt", []byte("The conference starts on 9 March.")),
		artifact.New("sales.csv", []byte("city,revenue\nTaipei,1200\n")),
	}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	answer, err := svc.AnswerDirect(context.Background(), sess.ID, "When does the conference start?")
	if err != nil {
		t.Fatalf("AnswerDirect() error = %v", err)
	}

	if answer.State != agentflow.StateFinished {
		t.Errorf("State = %q, want %q", answer.State, agentflow.StateFinished)
	}
	if len(answer.Steps) != 1 || answer.Steps[0].Tool != "direct" {
		t.Errorf("Steps = %+v, want one synthetic direct step", answer.Steps)
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("llm prompts = %d, want 1", len(llm.prompts))
	}
	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "[conference.txt]") || !strings.Contains(prompt, "9 March") {
		t.Errorf("prompt missing retrieved passage:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[sales.csv] spreadsheet with columns: city, revenue") {
		t.Errorf("prompt missing table announcement:\n%s", prompt)
	}
}

func TestResetKeepsSessionUsable(t *testing.T) {
	svc := newService(t, &scriptedLLM{})
	sess, _ := svc.Create(context.Background(), "reset")

	if _, err := svc.Ingest(context.Background(), sess.ID, []artifact.Artifact{
		artifact.New("notes.txt", []byte("remember the milk")),
	}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if err := svc.Reset(context.Background(), sess.ID); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if got := len(sess.Tools()); got != 0 {
		t.Errorf("len(Tools) after reset = %d, want 0", got)
	}
	if report := sess.Report(); len(report.Ingested) != 0 || len(report.Skipped) != 0 {
		t.Errorf("report after reset = %+v, want empty", report)
	}

	report, err := svc.Ingest(context.Background(), sess.ID, []artifact.Artifact{
		artifact.New("notes.txt", []byte("remember the milk")),
	})
	if err != nil {
		t.Fatalf("Ingest() after reset error = %v", err)
	}
	if len(report.Ingested) != 1 {
		t.Errorf("re-ingestion after reset failed: %+v", report)
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	svc := newService(t, &scriptedLLM{})
	sess, _ := svc.Create(context.Background(), "gone")

	if err := svc.Delete(context.Background(), sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), sess.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
	if err := svc.Delete(context.Background(), sess.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSessionNotFound", err)
	}
}

func TestListOrdersByCreation(t *testing.T) {
	svc := newService(t, &scriptedLLM{})
	first, _ := svc.Create(context.Background(), "first")
	second, _ := svc.Create(context.Background(), "second")

	sessions := svc.List(context.Background())
	if len(sessions) != 2 {
		t.Fatalf("len(List) = %d, want 2", len(sessions))
	}
	if sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Errorf("List order = [%s %s], want creation order", sessions[0].Name, sessions[1].Name)
	}
}
