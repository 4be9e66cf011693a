package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// handleUploadAudio handles audio file uploads into the session registry.
// Uploads never touch persistent storage; the returned served path is what
// a snippet's audio reference field gets set to.
func (ss *SnippetServer) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	// Only allow POST requests
	if r.Method != http.MethodPost {
		ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	// Check if uploads are enabled
	if !ss.config.Uploads.Enabled {
		ss.respondWithError(w, r, http.StatusForbidden, "File uploads are disabled", nil)
		return
	}

	// Parse multipart form with size limit
	maxSize := ss.config.Uploads.MaxSizeMB * 1024 * 1024 // Convert MB to bytes
	if err := r.ParseMultipartForm(maxSize); err != nil {
		ss.respondWithError(w, r, http.StatusBadRequest, "Failed to parse upload form", err)
		return
	}

	// Get the uploaded file
	file, header, err := r.FormFile("file")
	if err != nil {
		ss.respondWithError(w, r, http.StatusBadRequest, "No file provided", err)
		return
	}
	defer file.Close()

	// Validate file extension
	filename := header.Filename
	if !ss.isAcceptedAudioFile(filename) {
		ss.respondWithError(w, r, http.StatusBadRequest,
			"Invalid file type. Accepted formats: "+strings.Join(ss.config.Uploads.AcceptedFormats, ", "), nil)
		return
	}

	entry, err := ss.registry.Add(file, filename)
	if err != nil {
		ss.respondWithError(w, r, http.StatusInternalServerError, "Failed to store uploaded file", err)
		return
	}

	ss.logger.WithFields(logrus.Fields{
		"ref":      entry.Ref,
		"filename": filename,
		"size":     entry.Size,
		"title":    entry.Title,
	}).Info("Audio file uploaded")

	// Return the served path the snippet's audio reference should point at
	w.Header().Set("Content-Type", "application/json")
	ss.respondJSON(w, map[string]interface{}{
		"success":     true,
		"ref":         entry.Ref,
		"servedPath":  entry.ServedPath(),
		"title":       entry.Title,
		"duration":    entry.Duration,
		"contentType": entry.ContentType,
		"size":        entry.Size,
	})
}

// isAcceptedAudioFile checks if the filename has an accepted audio extension
func (ss *SnippetServer) isAcceptedAudioFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ss.config.IsFormatAccepted(ext)
}
