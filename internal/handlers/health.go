package handlers

import (
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/theayooolofin/Ilovevideo/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`

	FFmpegAvailable bool   `json:"ffmpegAvailable"`
	LedgerError     string `json:"ledgerError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	// LookPath only: probing the binary with -version on every health
	// check would spawn a process per probe.
	if _, err := exec.LookPath(h.config.FFmpegPath); err == nil {
		response.FFmpegAvailable = true
	} else {
		response.Status = statusDegraded
	}

	if _, err := h.store.Peek(r.Context(), "health-probe"); err != nil {
		response.Status = statusDegraded
		response.LedgerError = "usage ledger unavailable"
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != statusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}
