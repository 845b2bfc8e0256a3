package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

var startTime = time.Now()

// PipelineStats exposes the pipeline's lifetime request counters.
type PipelineStats interface {
	Stats() (completed, failed int64)
}

// HealthHandler handles the operational endpoints.
type HealthHandler struct {
	pipeline PipelineStats
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pipeline PipelineStats) *HealthHandler {
	return &HealthHandler{pipeline: pipeline}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// StatsResponse reports process and pipeline statistics.
type StatsResponse struct {
	UptimeSeconds     int64 `json:"uptime_seconds"`
	NumGoroutines     int   `json:"num_goroutines"`
	MemAllocMB        int64 `json:"mem_alloc_mb"`
	RequestsCompleted int64 `json:"requests_completed"`
	RequestsFailed    int64 `json:"requests_failed"`
}

// Stats handles GET /stats - process statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	completed, failed := h.pipeline.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(StatsResponse{
		UptimeSeconds:     int64(time.Since(startTime).Seconds()),
		NumGoroutines:     runtime.NumGoroutine(),
		MemAllocMB:        int64(m.Alloc / 1024 / 1024),
		RequestsCompleted: completed,
		RequestsFailed:    failed,
	})
}
