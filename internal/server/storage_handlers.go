package server

import (
	"net/http"
	"time"
)

// StorageStatusResponse tells the client which persistence backend is
// active. The editor shows its "using local storage" banner off this.
type StorageStatusResponse struct {
	Mode      string    `json:"mode"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
}

// handleStorageStatus returns the persistence router's current mode.
func (ss *SnippetServer) handleStorageStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	status := ss.router.Status()

	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, StorageStatusResponse{
		Mode:      string(status.Mode),
		Reason:    status.Reason,
		ChangedAt: status.At,
	})
}
