package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/serrynah/music-bites/internal/collection"
)

// handleGetPlaybackState returns the current playback state.
func (ss *SnippetServer) handleGetPlaybackState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, ss.coordinator.State())
}

// handlePlaybackAction dispatches POST /api/playback/{id}/{action}. The
// spinning element reports its lifecycle here; actions for snippets that
// are no longer bound are ignored rather than failed.
func (ss *SnippetServer) handlePlaybackAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	pathParts := strings.Split(r.URL.Path, "/")
	snippetID, vErr := ss.validateSnippetID(pathParts, 4)
	if vErr != nil {
		ss.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}
	if len(pathParts) < 5 || pathParts[4] == "" {
		ss.respondWithError(w, r, http.StatusBadRequest, "Playback action is required", nil)
		return
	}

	switch pathParts[4] {
	case "play":
		ss.handlePlaySnippet(w, r, snippetID)
		return
	case "pause":
		ss.coordinator.Pause(snippetID)
	case "progress":
		var req struct {
			Position float64 `json:"position"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ss.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}
		ss.coordinator.Progress(snippetID, req.Position)
	case "ended":
		ss.coordinator.Ended(snippetID)
	case "stop":
		ss.coordinator.Stop(snippetID)
	default:
		ss.respondWithError(w, r, http.StatusNotFound, "Unknown playback action", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, ss.coordinator.State())
}

// handlePlaySnippet starts playback of a snippet's uploaded audio, seeking
// to its stored start time. Whatever played before is displaced.
func (ss *SnippetServer) handlePlaySnippet(w http.ResponseWriter, r *http.Request, snippetID string) {
	if err := ss.collection.StartPlayback(snippetID); err != nil {
		switch {
		case errors.Is(err, collection.ErrSnippetNotFound):
			ss.respondWithError(w, r, http.StatusNotFound, "Snippet not found", nil)
		case errors.Is(err, collection.ErrNotUploadedAudio):
			ss.respondWithError(w, r, http.StatusBadRequest, "Snippet has no uploaded audio to play", nil)
		default:
			ss.respondWithError(w, r, http.StatusInternalServerError, "Failed to start playback", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, ss.coordinator.State())
}
