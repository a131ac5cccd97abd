package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/tools"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
	"github.com/pkumv1/AgenticAI-1/src/core/chunk"
	"github.com/pkumv1/AgenticAI-1/src/core/tableflow"
	"github.com/pkumv1/AgenticAI-1/src/core/toolbox"
	"github.com/pkumv1/AgenticAI-1/src/core/vectorindex"
	"github.com/pkumv1/AgenticAI-1/src/infrastructure/job"
	"github.com/pkumv1/AgenticAI-1/src/log"
)

const DefaultIngestWorkers = 4

// Service manages sessions and runs the ingestion and answering
// pipelines over them.
type Service struct {
	llm       LLMProvider
	extractor *artifact.Extractor
	splitter  chunk.Splitter
	builder   vectorindex.Builder
	tableFlow toolbox.TableAnswerer
	archive   ArtifactArchive
	queue     TranscriptQueue
	topK      int
	workers   int
	agentOpts []agentflow.Option

	mu       sync.RWMutex
	sessions map[string]*Session
}

type Option func(s *Service)

// WithArchive keeps a copy of every raw upload.
func WithArchive(archive ArtifactArchive) Option {
	return func(s *Service) {
		s.archive = archive
	}
}

// WithTranscriptQueue archives answered questions through the job
// queue.
func WithTranscriptQueue(queue TranscriptQueue) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithTableAnswerer replaces the default tabular sub-agent.
func WithTableAnswerer(flow toolbox.TableAnswerer) Option {
	return func(s *Service) {
		s.tableFlow = flow
	}
}

// WithTopK sets how many chunks retrieval pulls per sub-query.
func WithTopK(topK int) Option {
	return func(s *Service) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

// WithIngestWorkers caps how many artifacts are ingested in parallel.
func WithIngestWorkers(workers int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

// WithAgentOptions forwards options to every agent run.
func WithAgentOptions(opts ...agentflow.Option) Option {
	return func(s *Service) {
		s.agentOpts = append(s.agentOpts, opts...)
	}
}

func NewService(llm LLMProvider, extractor *artifact.Extractor, splitter chunk.Splitter, builder vectorindex.Builder, opts ...Option) (*Service, error) {
	s := &Service{
		llm:       llm,
		extractor: extractor,
		splitter:  splitter,
		builder:   builder,
		topK:      toolbox.DefaultTopK,
		workers:   DefaultIngestWorkers,
		sessions:  make(map[string]*Session),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.validateDependencies(); err != nil {
		return nil, fmt.Errorf("failed to validate dependencies: %w", err)
	}

	if s.tableFlow == nil {
		s.tableFlow = tableflow.NewTableFlow(s.llm)
	}

	return s, nil
}

func (s *Service) validateDependencies() error {
	if s.llm == nil {
		return fmt.Errorf("llm provider is required")
	}
	if s.extractor == nil {
		return fmt.Errorf("extractor is required")
	}
	if s.splitter == nil {
		return fmt.Errorf("splitter is required")
	}
	if s.builder == nil {
		return fmt.Errorf("index builder is required")
	}
	return nil
}

// Create registers a new empty session.
func (s *Service) Create(ctx context.Context, name string) (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
		registry:  toolbox.NewRegistry(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	log.Info("session created", "id", sess.ID, "name", name)
	return sess, nil
}

// Get looks a session up by ID.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// List returns all sessions ordered by creation time.
func (s *Service) List(ctx context.Context) []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Reset tears the session's indexes and toolbox down but keeps the
// session usable for re-ingestion.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.teardownLocked(ctx, sess); err != nil {
		return fmt.Errorf("failed to tear down session %s: %w", sessionID, err)
	}

	log.Info("session reset", "id", sessionID)
	return nil
}

// Delete tears the session down and removes it. The session is removed
// even when teardown is incomplete, so a broken backend cannot leave
// zombie sessions behind.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	teardownErr := s.teardownLocked(ctx, sess)
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	// Archived uploads follow the session out. Best-effort, like
	// archival itself.
	if purger, ok := s.archive.(interface {
		Purge(ctx context.Context, sessionID string) error
	}); ok {
		if err := purger.Purge(ctx, sessionID); err != nil {
			log.Error(err, "failed to purge archived uploads", "session", sessionID)
		}
	}

	log.Info("session deleted", "id", sessionID)

	if teardownErr != nil {
		return fmt.Errorf("session %s deleted with incomplete teardown: %w", sessionID, teardownErr)
	}
	return nil
}

// teardownLocked destroys external index state and empties the
// toolbox. Callers hold sess.mu.
func (s *Service) teardownLocked(ctx context.Context, sess *Session) error {
	var firstErr error
	for _, destroyer := range sess.destroyers {
		if err := destroyer.Destroy(ctx); err != nil {
			log.Error(err, "failed to destroy index", "session", sess.ID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	sess.registry = toolbox.NewRegistry()
	sess.report = IngestReport{}
	sess.retrievers = nil
	sess.tables = nil
	sess.destroyers = nil
	return firstErr
}

type ingestOutcome struct {
	ingested  *IngestedArtifact
	tool      tools.Tool
	retriever *retrieverHandle
	table     *tableHandle
	destroyer vectorindex.Destroyer
	skip      *SkippedArtifact
}

// Ingest runs the per-artifact pipeline over the batch, in parallel
// across artifacts, and registers the resulting tools once every task
// has finished. The returned report covers this batch only.
func (s *Service) Ingest(ctx context.Context, sessionID string, artifacts []artifact.Artifact) (*IngestReport, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	outcomes := make([]ingestOutcome, len(artifacts))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i := range artifacts {
		wg.Add(1)
		go func(i int, art artifact.Artifact) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = s.ingestOne(ctx, sess.ID, art)
		}(i, artifacts[i])
	}
	wg.Wait()

	var delta IngestReport
	for _, out := range outcomes {
		if out.skip != nil {
			delta.Skipped = append(delta.Skipped, *out.skip)
			continue
		}

		if err := sess.registry.Register(out.tool); err != nil {
			delta.Skipped = append(delta.Skipped, SkippedArtifact{Name: out.ingested.Name, Reason: err.Error()})
			if out.destroyer != nil {
				// The index never made it into the toolbox.
				if derr := out.destroyer.Destroy(ctx); derr != nil {
					log.Error(derr, "failed to destroy unregistered index", "name", out.ingested.Name)
				}
			}
			continue
		}

		delta.Ingested = append(delta.Ingested, *out.ingested)
		if out.retriever != nil {
			sess.retrievers = append(sess.retrievers, *out.retriever)
		}
		if out.table != nil {
			sess.tables = append(sess.tables, *out.table)
		}
		if out.destroyer != nil {
			sess.destroyers = append(sess.destroyers, out.destroyer)
		}
	}

	sess.report.Ingested = append(sess.report.Ingested, delta.Ingested...)
	sess.report.Skipped = append(sess.report.Skipped, delta.Skipped...)

	log.Info("ingestion finished",
		"session", sess.ID,
		"ingested", len(delta.Ingested),
		"skipped", len(delta.Skipped),
	)
	return &delta, nil
}

func (s *Service) ingestOne(ctx context.Context, sessionID string, art artifact.Artifact) ingestOutcome {
	log.Debug("ingesting artifact", "session", sessionID, "name", art.Name, "kind", art.Kind.String())

	if s.archive != nil {
		if err := s.archive.Archive(ctx, sessionID, art.Name, art.Data); err != nil {
			log.Error(err, "failed to archive artifact", "session", sessionID, "name", art.Name)
		}
	}

	content, err := s.extractor.Extract(ctx, art)
	if err != nil {
		return ingestOutcome{skip: &SkippedArtifact{Name: art.Name, Reason: err.Error()}}
	}

	switch c := content.(type) {
	case *artifact.PlainText:
		return s.buildRetrieval(ctx, art, c)
	case *artifact.Table:
		tool := toolbox.NewTabularTool(art.Name, c, s.tableFlow)
		return ingestOutcome{
			ingested: &IngestedArtifact{Name: art.Name, Kind: art.Kind.String(), ToolName: tool.Name()},
			tool:     tool,
			table:    &tableHandle{source: art.Name, table: c},
		}
	default:
		return ingestOutcome{skip: &SkippedArtifact{Name: art.Name, Reason: "extraction produced unsupported content"}}
	}
}

func (s *Service) buildRetrieval(ctx context.Context, art artifact.Artifact, text *artifact.PlainText) ingestOutcome {
	chunks, err := s.splitter.Split(art.Name, text.Text())
	if err != nil {
		return ingestOutcome{skip: &SkippedArtifact{Name: art.Name, Reason: err.Error()}}
	}

	index, err := s.builder.Build(ctx, chunks)
	if err != nil {
		return ingestOutcome{skip: &SkippedArtifact{Name: art.Name, Reason: err.Error()}}
	}

	tool := toolbox.NewRetrievalTool(art.Name, index, s.llm, s.topK)
	out := ingestOutcome{
		ingested:  &IngestedArtifact{Name: art.Name, Kind: art.Kind.String(), ToolName: tool.Name(), Chunks: len(chunks)},
		tool:      tool,
		retriever: &retrieverHandle{source: art.Name, index: index},
	}
	if destroyer, ok := index.(vectorindex.Destroyer); ok {
		out.destroyer = destroyer
	}
	return out
}

// Ask answers one question with the reasoning agent over the session's
// toolbox.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*agentflow.Answer, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	flow := agentflow.NewAgentFlow(s.llm, sess.registry, s.agentOpts...)
	answer, err := flow.Answer(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	s.archiveTranscript(ctx, sess.ID, question, answer)
	return answer, nil
}

// AnswerDirect skips the agent loop: top-k chunks from every
// retrieval-capable artifact are stuffed into a single completion.
// Tables are announced by name but not queried.
func (s *Service) AnswerDirect(ctx context.Context, sessionID, question string) (*agentflow.Answer, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	if len(sess.retrievers) == 0 && len(sess.tables) == 0 {
		return &agentflow.Answer{
			Text:  "There is nothing to query: no artifacts have been ingested yet.",
			State: agentflow.StateAborted,
		}, nil
	}

	var passages []string
	for _, r := range sess.retrievers {
		hits, err := r.index.Query(ctx, question, s.topK)
		if err != nil {
			log.Error(err, "failed to query index", "source", r.source)
			continue
		}
		for _, hit := range hits {
			passages = append(passages, fmt.Sprintf("[%s] %s", r.source, hit.Chunk.Text))
		}
	}
	for _, t := range sess.tables {
		passages = append(passages, fmt.Sprintf("[%s] spreadsheet with columns: %s", t.source, strings.Join(t.table.Columns, ", ")))
	}

	if len(passages) == 0 {
		return &agentflow.Answer{
			Text:  "No relevant passages were found for this question.",
			State: agentflow.StateFinished,
		}, nil
	}

	prompt, err := renderDirectPrompt(DirectData{Question: question, Passages: passages})
	if err != nil {
		return nil, err
	}

	reply, err := s.llm.Reasoning(ctx, DirectSystemTmpl, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate direct answer: %w", err)
	}

	answer := &agentflow.Answer{
		Text:  strings.TrimSpace(reply),
		State: agentflow.StateFinished,
		Steps: []agentflow.Step{{
			Iteration:   1,
			Thought:     "answer from stuffed context without the agent loop",
			Tool:        "direct",
			Input:       question,
			Observation: fmt.Sprintf("%d passages collected", len(passages)),
		}},
	}

	s.archiveTranscript(ctx, sess.ID, question, answer)
	return answer, nil
}

// archiveTranscript enqueues the answered question for background
// archival. Best-effort: the answer is returned either way.
func (s *Service) archiveTranscript(ctx context.Context, sessionID, question string, answer *agentflow.Answer) {
	if s.queue == nil {
		return
	}

	payload, err := json.Marshal(job.TranscriptPayload{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer.Text,
		State:     string(answer.State),
		Steps:     answer.Steps,
	})
	if err != nil {
		log.Error(err, "failed to marshal transcript payload", "session", sessionID)
		return
	}

	if _, err := s.queue.EnqueueJob(ctx, job.TaskTypeTranscriptArchive, payload); err != nil {
		log.Error(err, "failed to enqueue transcript job", "session", sessionID)
	}
}

func renderDirectPrompt(data DirectData) (string, error) {
	var buf bytes.Buffer
	tmpl := template.Must(template.New("direct").Parse(DirectPromptTmpl))
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute direct prompt template: %w", err)
	}
	return buf.String(), nil
}
