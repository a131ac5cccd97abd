package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
)

type askQuestionRequest struct {
	Question     string `json:"question" binding:"required"`
	Mode         string `json:"mode"`
	IncludeSteps bool   `json:"include_steps"`
}

type askQuestionResponse struct {
	Answer string           `json:"answer"`
	State  agentflow.State  `json:"state"`
	Steps  []agentflow.Step `json:"steps,omitempty"`
}

// AskQuestion godoc
// @Summary Answer a question against a session's artifacts
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body askQuestionRequest true "Question"
// @Success 200 {object} askQuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions/{id}/questions [post]
func (h *Handler) AskQuestion(c *gin.Context) {
	var req askQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	var (
		answer *agentflow.Answer
		err    error
	)
	switch req.Mode {
	case "", "agent":
		answer, err = h.sessions.Ask(ctx, id, req.Question)
	case "direct":
		answer, err = h.sessions.AnswerDirect(ctx, id, req.Question)
	default:
		sendError(c, http.StatusBadRequest, fmt.Errorf("unknown question mode: %q", req.Mode))
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	resp := askQuestionResponse{
		Answer: answer.Text,
		State:  answer.State,
	}
	if req.IncludeSteps {
		resp.Steps = answer.Steps
	}

	sendJSON(c, http.StatusOK, resp)
}
