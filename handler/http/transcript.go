package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultTranscriptLimit = 50

// ListTranscripts godoc
// @Summary List archived transcripts of a session
// @Description Transcripts outlive their session; listing works after the session is deleted.
// @Tags transcripts
// @Produce json
// @Param id path string true "Session ID"
// @Param limit query int false "Maximum rows to return" default(50)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {array} transcriptctrl.Transcript
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions/{id}/transcripts [get]
func (h *Handler) ListTranscripts(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultTranscriptLimit)
	if err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	transcripts, err := h.transcripts.ListBySession(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, transcripts)
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return value, nil
}
