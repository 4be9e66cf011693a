package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/serrynah/music-bites/internal/media"
)

const (
	// Buffer size for streaming (64KB)
	streamBufferSize = 64 * 1024
)

// handleStreamUpload streams a session upload by its ref with Range
// support, so the audio element can seek.
func (ss *SnippetServer) handleStreamUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		ss.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	ref, ok := media.RefFromPath(r.URL.Path)
	if !ok {
		ss.respondWithError(w, r, http.StatusBadRequest, "Invalid media reference", nil)
		return
	}

	file, entry, err := ss.registry.Open(ref)
	if err != nil {
		if errors.Is(err, media.ErrUnknownRef) {
			// Uploads only live for the session; stale references from
			// an earlier run land here.
			ss.respondWithError(w, r, http.StatusNotFound, "Audio not found", nil)
			return
		}
		ss.respondWithError(w, r, http.StatusInternalServerError, "Error opening audio file", err)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		ss.respondWithError(w, r, http.StatusInternalServerError, "Error reading file info", err)
		return
	}
	fileSize := stat.Size()

	// Session uploads never change in place, so cache headers are safe.
	etag := fmt.Sprintf(`"%d-%d"`, stat.ModTime().Unix(), fileSize)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", entry.ContentType)
	w.Header().Set("Accept-Ranges", "bytes")

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", strconv.FormatInt(fileSize, 10))
		return
	}

	// Handle range requests for seeking support
	rangeHeader := r.Header.Get("Range")
	if rangeHeader != "" {
		ss.handleRangeRequest(w, file, fileSize, rangeHeader)
		return
	}

	// Stream the entire file with buffered copying
	w.Header().Set("Content-Length", strconv.FormatInt(fileSize, 10))

	bufferedReader := bufio.NewReaderSize(file, streamBufferSize)
	buffer := make([]byte, streamBufferSize)

	if _, err := io.CopyBuffer(w, bufferedReader, buffer); err != nil {
		ss.logger.WithError(err).WithField("ref", ref).Debug("Audio stream interrupted")
	}
}

// handleRangeRequest implements simple single-range byte serving for seeking.
func (ss *SnippetServer) handleRangeRequest(w http.ResponseWriter, file *os.File, fileSize int64, rangeHeader string) {
	// Parse range header (e.g., "bytes=0-1023")
	ranges := strings.TrimPrefix(rangeHeader, "bytes=")
	rangeParts := strings.Split(ranges, "-")

	start, err := strconv.ParseInt(rangeParts[0], 10, 64)
	if err != nil {
		start = 0
	}

	var end int64
	if len(rangeParts) > 1 && rangeParts[1] != "" {
		end, err = strconv.ParseInt(rangeParts[1], 10, 64)
		if err != nil {
			end = fileSize - 1
		}
	} else {
		end = fileSize - 1
	}

	// Validate range
	if start < 0 || end >= fileSize || start > end {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	// Set partial content headers
	contentLength := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	w.Header().Set("Content-Length", strconv.FormatInt(contentLength, 10))
	w.WriteHeader(http.StatusPartialContent)

	// Seek to start position and copy the requested range
	file.Seek(start, io.SeekStart)
	io.CopyN(w, file, contentLength)
}
