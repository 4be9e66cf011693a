package server

import (
	"net/http"
	"time"
)

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	StorageMode string                 `json:"storageMode"`
	Storage     string                 `json:"storage"`
	Snippets    int                    `json:"snippetCount"`
	Uploads     int                    `json:"uploadCount"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// handleHealthCheck returns basic liveness + dependency checks.
func (ss *SnippetServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := &HealthStatus{
		Status:      "healthy",
		Timestamp:   time.Now(),
		StorageMode: string(ss.router.Mode()),
		Storage:     "ok",
		Snippets:    ss.collection.Len(),
		Uploads:     ss.registry.Count(),
		Details:     make(map[string]interface{}),
	}

	// Check storage accessibility
	if err := ss.checkStorageHealth(); err != nil {
		health.Status = "unhealthy"
		health.Storage = "error"
		health.Details["storage_error"] = err.Error()
	}

	// Set appropriate HTTP status code
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	ss.respondJSON(w, health)
}

// checkStorageHealth performs a trivial read against the active backend.
// In remote mode a failure here also trips the router's demotion; the
// next check then reads the local fallback.
func (ss *SnippetServer) checkStorageHealth() error {
	_, err := ss.router.Load()
	return err
}
