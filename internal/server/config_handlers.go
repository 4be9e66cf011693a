package server

import (
	"net/http"
)

// ConfigResponse represents the public configuration sent to the frontend
type ConfigResponse struct {
	Uploads UploadsConfigResponse `json:"uploads"`
	Remote  RemoteConfigResponse  `json:"remote"`
}

// UploadsConfigResponse represents upload-related configuration for the frontend
type UploadsConfigResponse struct {
	Enabled         bool     `json:"enabled"`
	MaxSizeMB       int64    `json:"maxSizeMb"`
	AcceptedFormats []string `json:"acceptedFormats"`
}

// RemoteConfigResponse tells the frontend whether a shared store was
// configured at all. The credential itself never leaves the server.
type RemoteConfigResponse struct {
	Configured bool `json:"configured"`
}

// handleGetConfig returns public configuration settings for the frontend
func (ss *SnippetServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	config := ConfigResponse{
		Uploads: UploadsConfigResponse{
			Enabled:         ss.config.Uploads.Enabled,
			MaxSizeMB:       ss.config.Uploads.MaxSizeMB,
			AcceptedFormats: ss.config.Uploads.AcceptedFormats,
		},
		Remote: RemoteConfigResponse{
			Configured: ss.config.RemoteConfigured(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, config)
}
