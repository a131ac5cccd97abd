package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pkumv1/AgenticAI-1/src/core/session"
	"github.com/pkumv1/AgenticAI-1/src/core/toolbox"
)

type createSessionRequest struct {
	Name string `json:"name" binding:"required"`
}

type sessionSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Tools     int       `json:"tools"`
}

type sessionDetail struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"createdAt"`
	Tools     []toolbox.Listing    `json:"tools"`
	Report    session.IngestReport `json:"report"`
}

func summarize(s *session.Session) sessionSummary {
	return sessionSummary{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		Tools:     len(s.Tools()),
	}
}

// CreateSession godoc
// @Summary Create a new session
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body createSessionRequest true "Session configuration"
// @Success 201 {object} sessionSummary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	s, err := h.sessions.Create(c.Request.Context(), req.Name)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusCreated, summarize(s))
}

// ListSessions godoc
// @Summary List all sessions
// @Tags sessions
// @Produce json
// @Success 200 {array} sessionSummary
// @Router /sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	sessions := h.sessions.List(c.Request.Context())

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, summarize(s))
	}

	sendJSON(c, http.StatusOK, summaries)
}

// GetSession godoc
// @Summary Get a session with its tools and ingestion report
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} sessionDetail
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *Handler) GetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, sessionDetail{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		Tools:     s.Tools(),
		Report:    s.Report(),
	})
}

// DeleteSession godoc
// @Summary Delete a session and tear down its indexes
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetSession godoc
// @Summary Drop a session's tools and indexes, keeping the session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions/{id}/reset [post]
func (h *Handler) ResetSession(c *gin.Context) {
	if err := h.sessions.Reset(c.Request.Context(), c.Param("id")); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}
