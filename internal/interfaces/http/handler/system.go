package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// readyTimeout bounds each dependency check of the readiness check
const readyTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger func(ctx context.Context) error

// SystemHandler serves liveness, readiness and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    map[string]Pinger
}

// NewSystemHandler creates a new SystemHandler. Each check is run by the
// readiness check under its name.
func NewSystemHandler(name, version string, checks map[string]Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// ReadyResponse lists the outcome of every dependency check
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health always answers 200 while the process serves requests.
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready answers 503 when any dependency check fails.
// GET /ready
func (h *SystemHandler) Ready(c *gin.Context) {
	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, ping := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		err := ping(ctx)
		cancel()
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	c.JSON(status, resp)
}

// GetSystemInfo returns the service name, version and uptime.
// GET /api/v1/system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
