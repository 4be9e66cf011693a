package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/serrynah/music-bites/internal/collection"
	"github.com/serrynah/music-bites/internal/enrich"
	"github.com/serrynah/music-bites/pkg/models"
)

// handleHome serves the editor shell from the configured static dir.
func (ss *SnippetServer) handleHome(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(ss.config.Server.StaticDir, "index.html"))
}

// handleSnippets dispatches the collection-level snippet routes.
func (ss *SnippetServer) handleSnippets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ss.handleListSnippets(w, r)
	case http.MethodPost:
		ss.handleCreateSnippet(w, r)
	default:
		ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleListSnippets returns the collection in display order.
func (ss *SnippetServer) handleListSnippets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, ss.collection.Snapshot())
}

// handleCreateSnippet appends a fresh snippet row.
func (ss *SnippetServer) handleCreateSnippet(w http.ResponseWriter, r *http.Request) {
	snippet := ss.collection.Add()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	ss.respondJSON(w, snippet)
}

// handleSnippetByID dispatches the ID-addressed snippet routes:
// PATCH/DELETE /api/snippets/{id}, POST /api/snippets/{id}/capture-start
// and GET /api/snippets/{id}/embed.
func (ss *SnippetServer) handleSnippetByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")

	snippetID, vErr := ss.validateSnippetID(pathParts, 4)
	if vErr != nil {
		ss.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}

	if len(pathParts) >= 5 && pathParts[4] != "" {
		switch pathParts[4] {
		case "capture-start":
			if r.Method != http.MethodPost {
				ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
				return
			}
			ss.handleCaptureStartTime(w, r, snippetID)
		case "embed":
			if r.Method != http.MethodGet {
				ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
				return
			}
			ss.handleSnippetEmbed(w, r, snippetID)
		default:
			ss.respondWithError(w, r, http.StatusNotFound, "Unknown snippet action", nil)
		}
		return
	}

	switch r.Method {
	case http.MethodPatch:
		ss.handleUpdateSnippet(w, r, snippetID)
	case http.MethodDelete:
		ss.handleDeleteSnippet(w, r, snippetID)
	default:
		ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// snippetUpdateRequest carries field edits; absent fields stay untouched.
type snippetUpdateRequest struct {
	SongName      *string `json:"songName,omitempty"`
	AudioType     *string `json:"audioType,omitempty"`
	AudioURL      *string `json:"audioUrl,omitempty"`
	SpotifyURL    *string `json:"spotifyUrl,omitempty"`
	SoundCloudURL *string `json:"soundcloudUrl,omitempty"`
	StartTime     *string `json:"startTime,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// handleUpdateSnippet applies the fields present in the request body, each
// one as a typed update through the collection. Start time is not
// validated here: a malformed value reverts to the default instead of
// failing the edit.
func (ss *SnippetServer) handleUpdateSnippet(w http.ResponseWriter, r *http.Request, snippetID string) {
	var req snippetUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ss.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	var validationErrors []ValidationError
	if req.SongName != nil {
		if vErr := ss.validateSongName(*req.SongName); vErr != nil {
			validationErrors = append(validationErrors, *vErr)
		}
	}
	if req.AudioType != nil {
		if vErr := ss.validateAudioSourceKind(*req.AudioType); vErr != nil {
			validationErrors = append(validationErrors, *vErr)
		}
	}
	if req.AudioURL != nil {
		if vErr := ss.validateTrackURL("audioUrl", *req.AudioURL); vErr != nil {
			validationErrors = append(validationErrors, *vErr)
		}
	}
	if req.SpotifyURL != nil {
		if vErr := ss.validateTrackURL("spotifyUrl", *req.SpotifyURL); vErr != nil {
			validationErrors = append(validationErrors, *vErr)
		}
	}
	if req.SoundCloudURL != nil {
		if vErr := ss.validateTrackURL("soundcloudUrl", *req.SoundCloudURL); vErr != nil {
			validationErrors = append(validationErrors, *vErr)
		}
	}
	if req.Notes != nil {
		if vErr := ss.validateNotes(*req.Notes); vErr != nil {
			validationErrors = append(validationErrors, *vErr)
		}
	}
	if len(validationErrors) > 0 {
		ss.respondWithValidationError(w, r, validationErrors)
		return
	}

	updates := buildUpdates(req)
	if len(updates) == 0 {
		ss.respondWithError(w, r, http.StatusBadRequest, "No fields to update", nil)
		return
	}

	snippet, ok := ss.collection.Get(snippetID)
	if !ok {
		ss.respondWithError(w, r, http.StatusNotFound, "Snippet not found", nil)
		return
	}

	var err error
	for _, update := range updates {
		snippet, err = ss.collection.Apply(snippetID, update)
		if err != nil {
			ss.respondWithError(w, r, http.StatusNotFound, "Snippet not found", err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, snippet)
}

// buildUpdates maps present request fields to typed updates, in the
// field order of the snippet itself.
func buildUpdates(req snippetUpdateRequest) []collection.Update {
	var updates []collection.Update
	if req.SongName != nil {
		updates = append(updates, collection.SetSongName{Name: sanitizeInput(*req.SongName)})
	}
	if req.AudioType != nil {
		updates = append(updates, collection.SetAudioSource{Kind: models.AudioSourceKind(*req.AudioType)})
	}
	if req.AudioURL != nil {
		updates = append(updates, collection.SetAudioRef{URL: strings.TrimSpace(*req.AudioURL)})
	}
	if req.SpotifyURL != nil {
		updates = append(updates, collection.SetSpotifyURL{URL: strings.TrimSpace(*req.SpotifyURL)})
	}
	if req.SoundCloudURL != nil {
		updates = append(updates, collection.SetSoundCloudURL{URL: strings.TrimSpace(*req.SoundCloudURL)})
	}
	if req.StartTime != nil {
		updates = append(updates, collection.SetStartTime{Text: strings.TrimSpace(*req.StartTime)})
	}
	if req.Notes != nil {
		updates = append(updates, collection.SetNotes{Text: *req.Notes})
	}
	return updates
}

// handleDeleteSnippet removes a snippet from the collection.
func (ss *SnippetServer) handleDeleteSnippet(w http.ResponseWriter, r *http.Request, snippetID string) {
	if err := ss.collection.Delete(snippetID); err != nil {
		if errors.Is(err, collection.ErrSnippetNotFound) {
			ss.respondWithError(w, r, http.StatusNotFound, "Snippet not found", nil)
			return
		}
		ss.respondWithError(w, r, http.StatusInternalServerError, "Failed to delete snippet", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, map[string]interface{}{
		"success": true,
		"message": "Snippet deleted",
	})
}

// handleCaptureStartTime stores the current playback position of the
// snippet's audio element as its start time.
func (ss *SnippetServer) handleCaptureStartTime(w http.ResponseWriter, r *http.Request, snippetID string) {
	snippet, err := ss.collection.CaptureStartTime(snippetID)
	if err != nil {
		switch {
		case errors.Is(err, collection.ErrSnippetNotFound):
			ss.respondWithError(w, r, http.StatusNotFound, "Snippet not found", nil)
		case errors.Is(err, collection.ErrNoPlayback):
			ss.respondWithError(w, r, http.StatusBadRequest, "Snippet is not playing", nil)
		default:
			ss.respondWithError(w, r, http.StatusInternalServerError, "Failed to capture start time", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, snippet)
}

// handleSnippetEmbed returns the preview descriptor for the snippet's
// active reference.
func (ss *SnippetServer) handleSnippetEmbed(w http.ResponseWriter, r *http.Request, snippetID string) {
	snippet, ok := ss.collection.Get(snippetID)
	if !ok {
		ss.respondWithError(w, r, http.StatusNotFound, "Snippet not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, enrich.BuildEmbed(snippet))
}
