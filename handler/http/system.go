package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const probeTimeout = 5 * time.Second

// Probe reports whether one external dependency is reachable.
type Probe struct {
	Name  string
	Check func(ctx context.Context) bool
}

type ComponentStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components"`
}

// SystemService runs liveness probes against the configured backends.
type SystemService struct {
	probes []Probe
}

func NewSystemService(probes ...Probe) *SystemService {
	return &SystemService{probes: probes}
}

// Health probes every component. The overall status is "down" as soon
// as any single component is down.
func (s *SystemService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Components: make([]ComponentStatus, 0, len(s.probes)),
	}

	for _, probe := range s.probes {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		component := ComponentStatus{Name: probe.Name, Status: "up"}
		if !probe.Check(probeCtx) {
			component.Status = "down"
			status.Status = "down"
		}
		cancel()
		status.Components = append(status.Components, component)
	}

	return status
}

// CheckHealth godoc
// @Summary Report component health
// @Tags system
// @Produce json
// @Success 200 {object} HealthStatus
// @Failure 503 {object} HealthStatus
// @Router /health [get]
func (h *Handler) CheckHealth(c *gin.Context) {
	health := h.system.Health(c.Request.Context())

	status := http.StatusOK
	if health.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	sendJSON(c, status, health)
}
