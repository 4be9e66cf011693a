package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/serrynah/music-bites/pkg/models"

	"github.com/sirupsen/logrus"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// respondJSON encodes the payload onto the response, logging encode failures.
func (ss *SnippetServer) respondJSON(w http.ResponseWriter, payload interface{}) {
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		ss.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// respondWithValidationError sends a structured validation error response
func (ss *SnippetServer) respondWithValidationError(w http.ResponseWriter, r *http.Request, errors []ValidationError) {
	ss.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"errors": errors,
	}).Warn("Validation failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	result := ValidationResult{
		Valid:  false,
		Errors: errors,
	}

	ss.respondJSON(w, result)
}

// respondWithError sends a structured error response
func (ss *SnippetServer) respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logEntry := ss.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
	})

	if err != nil {
		logEntry = logEntry.WithError(err)
	}

	if statusCode >= 500 {
		logEntry.Error("Server error")
	} else {
		logEntry.Warn("Client error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]interface{}{
		"error":   message,
		"code":    statusCode,
		"success": false,
	}

	ss.respondJSON(w, response)
}

// validateSnippetID validates a snippet ID taken from the URL path.
// Snippet IDs are opaque strings; only shape is checked here, existence
// is the collection's call.
func (ss *SnippetServer) validateSnippetID(pathParts []string, minParts int) (string, *ValidationError) {
	if len(pathParts) < minParts {
		return "", &ValidationError{
			Field:   "snippet_id",
			Message: "Snippet ID is required",
			Code:    "MISSING_SNIPPET_ID",
		}
	}

	snippetID := pathParts[minParts-1]
	if snippetID == "" {
		return "", &ValidationError{
			Field:   "snippet_id",
			Message: "Snippet ID cannot be empty",
			Code:    "EMPTY_SNIPPET_ID",
		}
	}

	if len(snippetID) > 128 {
		return "", &ValidationError{
			Field:   "snippet_id",
			Message: "Snippet ID too long (max 128 characters)",
			Code:    "SNIPPET_ID_TOO_LONG",
		}
	}

	if strings.Contains(snippetID, "\x00") {
		return "", &ValidationError{
			Field:   "snippet_id",
			Message: "Snippet ID contains invalid characters",
			Code:    "INVALID_SNIPPET_ID_CHARACTERS",
		}
	}

	return snippetID, nil
}

// validateAudioSourceKind validates the audio source kind enum value.
func (ss *SnippetServer) validateAudioSourceKind(kind string) *ValidationError {
	if !models.AudioSourceKind(kind).Valid() {
		return &ValidationError{
			Field:   "audioType",
			Message: "Audio source must be one of: file, spotify, soundcloud",
			Code:    "INVALID_AUDIO_SOURCE",
		}
	}
	return nil
}

// validateSongName validates a song name field value.
func (ss *SnippetServer) validateSongName(name string) *ValidationError {
	if len(name) > 255 {
		return &ValidationError{
			Field:   "songName",
			Message: "Song name too long (max 255 characters)",
			Code:    "SONG_NAME_TOO_LONG",
		}
	}

	if strings.Contains(name, "\x00") {
		return &ValidationError{
			Field:   "songName",
			Message: "Song name contains invalid characters",
			Code:    "INVALID_SONG_NAME_CHARACTERS",
		}
	}

	return nil
}

// validateNotes validates the free-text notes field.
func (ss *SnippetServer) validateNotes(notes string) *ValidationError {
	if len(notes) > 2000 {
		return &ValidationError{
			Field:   "notes",
			Message: "Notes too long (max 2000 characters)",
			Code:    "NOTES_TOO_LONG",
		}
	}

	return nil
}

// validateTrackURL validates a pasted track URL field value. Anything a
// user can type is stored; only size and null bytes are rejected. A value
// that is not a real track URL simply renders no preview.
func (ss *SnippetServer) validateTrackURL(field, urlStr string) *ValidationError {
	if len(urlStr) > 2048 {
		return &ValidationError{
			Field:   field,
			Message: "URL too long (max 2048 characters)",
			Code:    "URL_TOO_LONG",
		}
	}

	if strings.Contains(urlStr, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "URL contains invalid characters",
			Code:    "INVALID_URL_CHARACTERS",
		}
	}

	return nil
}

// sanitizeInput sanitizes user input before it reaches the collection.
func sanitizeInput(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}
