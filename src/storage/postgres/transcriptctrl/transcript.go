package transcriptctrl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Transcript is one archived question and answer.
type Transcript struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	SessionID string          `gorm:"not null;index;column:session_id" json:"session_id"`
	Question  string          `gorm:"not null" json:"question"`
	Answer    string          `gorm:"not null" json:"answer"`
	State     string          `gorm:"not null" json:"state"`
	Steps     json.RawMessage `gorm:"type:jsonb" json:"steps,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type TranscriptService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewTranscriptService(db *gorm.DB) (*TranscriptService, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %v", err)
	}

	return &TranscriptService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *TranscriptService) Create(ctx context.Context, sessionID, question, answer, state string, steps json.RawMessage) (*Transcript, error) {
	transcript := &Transcript{
		ID:        s.snowflake.Generate().Int64(),
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		State:     state,
		Steps:     steps,
	}

	result := s.db.WithContext(ctx).Create(transcript)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create transcript: %v", result.Error)
	}

	return transcript, nil
}

// ListBySession returns a session's transcripts, newest first.
func (s *TranscriptService) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]Transcript, error) {
	var transcripts []Transcript

	result := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transcripts)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to list transcripts: %v", result.Error)
	}

	return transcripts, nil
}
