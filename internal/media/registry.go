// Package media holds the bytes behind "uploaded file" snippets for the
// lifetime of one process. References handed out here are ephemeral:
// files live in a per-session temp directory that is removed on shutdown,
// and the served paths stored on snippets do not survive a restart.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrUnknownRef marks a reference that was never registered or has been
// invalidated.
var ErrUnknownRef = errors.New("unknown media reference")

// ServePrefix is the URL prefix uploaded audio is streamed under.
const ServePrefix = "/media/"

// Entry describes one registered upload.
type Entry struct {
	Ref         string    `json:"ref"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Duration    int       `json:"duration"`
	Title       string    `json:"title"`
	AddedAt     time.Time `json:"addedAt"`

	path string
}

// ServedPath returns the URL path this entry streams from. This is the
// value stored on a snippet's audio reference field.
func (e Entry) ServedPath() string {
	return ServePrefix + e.Ref
}

// Registry owns the session's uploaded audio files.
type Registry struct {
	dir    string
	prober *Prober
	logger *logrus.Logger

	mu      sync.RWMutex
	entries map[string]Entry

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRegistry creates the session upload directory and starts watching it
// for files that disappear out-of-band.
func NewRegistry(logger *logrus.Logger) (*Registry, error) {
	dir, err := os.MkdirTemp("", "musicbites-uploads-")
	if err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	r := &Registry{
		dir:     dir,
		prober:  NewProber(logger),
		logger:  logger,
		entries: make(map[string]Entry),
		done:    make(chan struct{}),
	}

	if err := r.startWatcher(); err != nil {
		// Uploads still work without the watcher; stale entries just
		// surface as stream errors instead.
		logger.WithError(err).Warn("Could not watch upload directory")
	}

	logger.WithField("dir", dir).Info("Media registry initialized")
	return r, nil
}

// Add stores the uploaded bytes under a fresh reference and probes them for
// a title and duration.
func (r *Registry) Add(reader io.Reader, filename string) (Entry, error) {
	ref := uuid.New().String()

	// Keep only the extension from the client-supplied name.
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	path := filepath.Join(r.dir, ref+ext)

	dest, err := os.Create(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to create upload file: %w", err)
	}

	size, err := io.Copy(dest, reader)
	dest.Close()
	if err != nil {
		os.Remove(path)
		return Entry{}, fmt.Errorf("failed to save upload: %w", err)
	}

	info := r.prober.Probe(path, filepath.Base(filename))

	entry := Entry{
		Ref:         ref,
		Name:        filepath.Base(filename),
		ContentType: ContentType(path),
		Size:        size,
		Duration:    info.Duration,
		Title:       info.Title,
		AddedAt:     time.Now(),
		path:        path,
	}

	r.mu.Lock()
	r.entries[ref] = entry
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"ref":      ref,
		"filename": entry.Name,
		"size":     size,
		"duration": info.Duration,
	}).Info("Upload registered")

	return entry, nil
}

// Get looks up an entry by reference.
func (r *Registry) Get(ref string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[ref]
	return entry, ok
}

// Resolve maps a stored audio reference (a served path) back to its entry.
func (r *Registry) Resolve(servedPath string) (Entry, bool) {
	ref, ok := RefFromPath(servedPath)
	if !ok {
		return Entry{}, false
	}
	return r.Get(ref)
}

// RefFromPath extracts the reference from a served path.
func RefFromPath(servedPath string) (string, bool) {
	if !strings.HasPrefix(servedPath, ServePrefix) {
		return "", false
	}
	ref := strings.TrimPrefix(servedPath, ServePrefix)
	if ref == "" || strings.Contains(ref, "/") {
		return "", false
	}
	return ref, true
}

// Open returns the backing file for streaming. The caller closes it.
func (r *Registry) Open(ref string) (*os.File, Entry, error) {
	entry, ok := r.Get(ref)
	if !ok {
		return nil, Entry{}, ErrUnknownRef
	}

	file, err := os.Open(entry.path)
	if err != nil {
		// The bytes are gone; drop the entry so callers stop finding it.
		r.invalidate(entry.path)
		return nil, Entry{}, fmt.Errorf("upload no longer readable: %w", err)
	}
	return file, entry, nil
}

// Release deletes the uploaded bytes and forgets the reference. Releasing
// an unknown reference is a no-op.
func (r *Registry) Release(ref string) {
	r.mu.Lock()
	entry, ok := r.entries[ref]
	if ok {
		delete(r.entries, ref)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	if err := os.Remove(entry.path); err != nil && !os.IsNotExist(err) {
		r.logger.WithError(err).WithField("ref", ref).Warn("Failed to remove upload file")
	}
	r.logger.WithField("ref", ref).Debug("Upload released")
}

// Count returns the number of live uploads.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close stops the watcher and removes the session upload directory with
// everything in it.
func (r *Registry) Close() error {
	close(r.done)
	if r.watcher != nil {
		r.watcher.Close()
	}

	r.mu.Lock()
	r.entries = make(map[string]Entry)
	r.mu.Unlock()

	return os.RemoveAll(r.dir)
}
