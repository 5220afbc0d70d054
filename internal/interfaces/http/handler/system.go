package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/infrastructure/persistence"
	"github.com/afftrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	db         *persistence.Database
	claimStore shared.LeadClaimStore
	startTime  time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database, claimStore shared.LeadClaimStore) *SystemHandler {
	return &SystemHandler{
		db:         db,
		claimStore: claimStore,
		startTime:  time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"AffTrack Backend API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo returns basic system information including version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "AffTrack Backend API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping is a simple liveness check
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status" example:"healthy"`
	Database   string `json:"database" example:"up"`
	ClaimStore string `json:"claim_store" example:"up"`
}

// Health reports readiness: the process is healthy only when the
// database and the lead claim store both answer a ping
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Database: "up", ClaimStore: "up"}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Database = "down"
		}
	}
	if h.claimStore != nil {
		if err := h.claimStore.Ping(c.Request.Context()); err != nil {
			resp.ClaimStore = "down"
		}
	}

	if resp.Database == "down" || resp.ClaimStore == "down" {
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
