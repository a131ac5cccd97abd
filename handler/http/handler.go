package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
	"github.com/pkumv1/AgenticAI-1/src/core/session"
	"github.com/pkumv1/AgenticAI-1/src/storage/postgres/transcriptctrl"
)

// SessionService is the session surface the handlers need.
// *session.Service satisfies it.
type SessionService interface {
	Create(ctx context.Context, name string) (*session.Session, error)
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	List(ctx context.Context) []*session.Session
	Delete(ctx context.Context, sessionID string) error
	Reset(ctx context.Context, sessionID string) error
	Ingest(ctx context.Context, sessionID string, artifacts []artifact.Artifact) (*session.IngestReport, error)
	Ask(ctx context.Context, sessionID, question string) (*agentflow.Answer, error)
	AnswerDirect(ctx context.Context, sessionID, question string) (*agentflow.Answer, error)
}

// TranscriptStore lists archived question transcripts.
// *transcriptctrl.TranscriptService satisfies it.
type TranscriptStore interface {
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]transcriptctrl.Transcript, error)
}

type Handler struct {
	sessions    SessionService
	system      *SystemService
	transcripts TranscriptStore
}

type HandlerOption func(h *Handler)

// WithTranscripts exposes the transcript archive over the API.
func WithTranscripts(store TranscriptStore) HandlerOption {
	return func(h *Handler) {
		h.transcripts = store
	}
}

func NewHandler(sessions SessionService, system *SystemService, opts ...HandlerOption) *Handler {
	h := &Handler{
		sessions: sessions,
		system:   system,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	// Session routes
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions", h.ListSessions)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.DeleteSession)
	api.POST("/sessions/:id/reset", h.ResetSession)

	// Artifact routes
	api.POST("/sessions/:id/artifacts", h.UploadArtifacts)
	api.GET("/sessions/:id/tools", h.ListTools)

	// Question routes
	api.POST("/sessions/:id/questions", h.AskQuestion)

	// Transcript routes, only when an archive is configured
	if h.transcripts != nil {
		api.GET("/sessions/:id/transcripts", h.ListTranscripts)
	}

	// System routes
	r.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		code = "NOT_FOUND"
		status = http.StatusNotFound
	case status == http.StatusBadRequest:
		code = "INVALID_REQUEST"
	default:
		code = "INTERNAL_ERROR"
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
