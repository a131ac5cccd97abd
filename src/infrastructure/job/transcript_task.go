package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
	"github.com/pkumv1/AgenticAI-1/src/storage/postgres/transcriptctrl"
)

const TaskTypeTranscriptArchive = "transcript_archive"

// TranscriptPayload is the transcript_archive job payload: one
// answered question with its reasoning steps.
type TranscriptPayload struct {
	SessionID string           `json:"sessionId"`
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	State     string           `json:"state"`
	Steps     []agentflow.Step `json:"steps,omitempty"`
}

// TranscriptStore persists archived transcripts.
// *transcriptctrl.TranscriptService satisfies it.
type TranscriptStore interface {
	Create(ctx context.Context, sessionID, question, answer, state string, steps json.RawMessage) (*transcriptctrl.Transcript, error)
}

// TranscriptTask writes answered questions to the transcript store.
type TranscriptTask struct {
	store TranscriptStore
}

func NewTranscriptTask(store TranscriptStore) *TranscriptTask {
	return &TranscriptTask{store: store}
}

func (task *TranscriptTask) HandleTranscriptTask(ctx context.Context, payload json.RawMessage) error {
	var transcript TranscriptPayload
	if err := json.Unmarshal(payload, &transcript); err != nil {
		return fmt.Errorf("failed to unmarshal transcript payload: %w", err)
	}
	if transcript.SessionID == "" || transcript.Question == "" {
		return fmt.Errorf("transcript payload missing session or question")
	}

	var steps json.RawMessage
	if len(transcript.Steps) > 0 {
		encoded, err := json.Marshal(transcript.Steps)
		if err != nil {
			return fmt.Errorf("failed to marshal transcript steps: %w", err)
		}
		steps = encoded
	}

	if _, err := task.store.Create(
		ctx,
		transcript.SessionID,
		transcript.Question,
		transcript.Answer,
		transcript.State,
		steps,
	); err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}

	return nil
}
