package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
	"github.com/pkumv1/AgenticAI-1/src/core/toolbox"
	"github.com/pkumv1/AgenticAI-1/src/core/vectorindex"
	"github.com/pkumv1/AgenticAI-1/src/infrastructure/job"
)

var ErrSessionNotFound = errors.New("session not found")

// LLMProvider is the reasoning model shared by the agent loop, the
// retrieval tools and the tabular sub-agent.
type LLMProvider interface {
	Reasoning(ctx context.Context, system string, prompt string) (string, error)
}

// ArtifactArchive keeps a copy of every raw upload. Archival is
// best-effort: failures never fail ingestion.
type ArtifactArchive interface {
	Archive(ctx context.Context, sessionID string, name string, data []byte) error
}

// TranscriptQueue hands answered questions to the background archiver.
// *job.JobService satisfies it.
type TranscriptQueue interface {
	EnqueueJob(ctx context.Context, taskType string, payload json.RawMessage) (*job.Job, error)
}

// IngestedArtifact is one successfully ingested upload.
type IngestedArtifact struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	ToolName string `json:"toolName"`
	Chunks   int    `json:"chunks"`
}

// SkippedArtifact is one upload that did not make it into the toolbox,
// with the reason it was skipped.
type SkippedArtifact struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IngestReport lists per-artifact outcomes. Mixed batches are normal:
// a bad upload is reported here, never allowed to abort the rest.
type IngestReport struct {
	Ingested []IngestedArtifact `json:"ingested"`
	Skipped  []SkippedArtifact  `json:"skipped"`
}

type retrieverHandle struct {
	source string
	index  vectorindex.Index
}

type tableHandle struct {
	source string
	table  *artifact.Table
}

// Session owns one toolbox and the indexes behind it. The mutex
// separates the registration phase (Ingest, Reset) from the invocation
// phase (Ask, AnswerDirect): tools are never visible mid-build.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`

	mu         sync.RWMutex
	registry   *toolbox.Registry
	report     IngestReport
	retrievers []retrieverHandle
	tables     []tableHandle
	destroyers []vectorindex.Destroyer
}

// Tools returns the registry listing in registration order.
func (s *Session) Tools() []toolbox.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.List()
}

// Report returns a copy of the cumulative ingestion report.
func (s *Session) Report() IngestReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return IngestReport{
		Ingested: append([]IngestedArtifact(nil), s.report.Ingested...),
		Skipped:  append([]SkippedArtifact(nil), s.report.Skipped...),
	}
}
