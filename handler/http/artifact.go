package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
)

// UploadArtifacts godoc
// @Summary Ingest uploaded files into a session
// @Tags artifacts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param files formData file true "Files to ingest"
// @Success 200 {object} session.IngestReport
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/artifacts [post]
func (h *Handler) UploadArtifacts(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		sendError(c, http.StatusBadRequest, errors.New("no files uploaded"))
		return
	}

	artifacts := make([]artifact.Artifact, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			sendError(c, http.StatusBadRequest, fmt.Errorf("failed to open %s: %w", header.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			sendError(c, http.StatusBadRequest, fmt.Errorf("failed to read %s: %w", header.Filename, err))
			return
		}
		artifacts = append(artifacts, artifact.New(header.Filename, data))
	}

	report, err := h.sessions.Ingest(c.Request.Context(), c.Param("id"), artifacts)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, report)
}

// ListTools godoc
// @Summary List a session's registered tools in registration order
// @Tags artifacts
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/tools [get]
func (h *Handler) ListTools(c *gin.Context) {
	s, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, gin.H{"tools": s.Tools()})
}
