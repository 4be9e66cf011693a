// Package collection owns the in-memory snippet collection. Mutations are
// optimistic: in-memory state changes first and is authoritative for the
// UI; persistence happens as an ordered, non-blocking follow-up through the
// store router. Failed writes are absorbed by the router's local fallback,
// never rolled back.
package collection

import (
	"errors"
	"fmt"
	"sync"

	"github.com/serrynah/music-bites/internal/enrich"
	"github.com/serrynah/music-bites/internal/media"
	"github.com/serrynah/music-bites/internal/playback"
	"github.com/serrynah/music-bites/internal/store"
	"github.com/serrynah/music-bites/internal/timecode"
	"github.com/serrynah/music-bites/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrSnippetNotFound marks operations against an unknown snippet ID.
	ErrSnippetNotFound = errors.New("snippet not found")

	// ErrNoPlayback means no playback element is bound to the snippet,
	// so there is no position to capture.
	ErrNoPlayback = errors.New("no playback bound to snippet")

	// ErrNotUploadedAudio marks playback requests for snippets whose
	// source is an external service; those play inside their embeds.
	ErrNotUploadedAudio = errors.New("snippet is not an uploaded audio source")
)

// Controller owns the ordered snippet collection and its persistence.
type Controller struct {
	mu       sync.RWMutex
	snippets []models.Snippet

	router   *store.Router
	playback *playback.Coordinator
	media    *media.Registry
	enricher *enrich.Enricher
	logger   *logrus.Logger
	queue    *persistQueue
}

// NewController wires the collection to its collaborators. The media
// registry and enricher may be nil; the corresponding conveniences
// (title pre-fill, upload release) simply do not happen then.
func NewController(
	router *store.Router,
	coordinator *playback.Coordinator,
	registry *media.Registry,
	enricher *enrich.Enricher,
	logger *logrus.Logger,
) *Controller {
	return &Controller{
		router:   router,
		playback: coordinator,
		media:    registry,
		enricher: enricher,
		logger:   logger,
		queue:    newPersistQueue(router, logger),
	}
}

// Load populates the collection from the active persistence backend,
// ordered by position.
func (c *Controller) Load() error {
	snippets, err := c.router.Load()
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	c.mu.Lock()
	c.snippets = snippets
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"count": len(snippets),
		"mode":  c.router.Mode(),
	}).Info("Snippet collection loaded")
	return nil
}

// Add appends a fresh snippet with default fields and writes it through.
// Its position is the collection length at creation time; deletions do not
// renumber survivors.
func (c *Controller) Add() models.Snippet {
	c.mu.Lock()
	snippet := models.Snippet{
		ID:        uuid.New().String(),
		AudioType: models.SourceFile,
		StartTime: timecode.Default,
		Position:  len(c.snippets),
	}
	c.snippets = append(c.snippets, snippet)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.queue.enqueue(persistOp{kind: opUpsert, snippet: snippet, snapshot: snapshot})

	c.logger.WithField("snippet_id", snippet.ID).Info("Snippet added")
	return snippet
}

// Apply runs one typed field update against the snippet with the given ID
// and writes the result through. Every field edit the UI makes goes through
// here.
func (c *Controller) Apply(id string, update Update) (models.Snippet, error) {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return models.Snippet{}, ErrSnippetNotFound
	}
	before := c.snippets[idx]
	update.apply(&c.snippets[idx])
	after := c.snippets[idx]
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.queue.enqueue(persistOp{kind: opUpsert, snippet: after, snapshot: snapshot})

	c.logger.WithFields(logrus.Fields{
		"snippet_id": id,
		"field":      update.field(),
	}).Debug("Snippet updated")

	c.reactTo(before, after, update)
	return after, nil
}

// reactTo handles the side conditions of specific field updates.
func (c *Controller) reactTo(before, after models.Snippet, update Update) {
	switch u := update.(type) {
	case SetAudioSource:
		// Moving the source away from uploaded audio while that element
		// is playing leaves nothing to play.
		if before.AudioType == models.SourceFile && u.Kind != models.SourceFile {
			c.playback.Stop(after.ID)
		}

	case SetSpotifyURL:
		if c.shouldEnrich(before.SpotifyURL, after, models.SourceSpotify, u.URL) {
			go c.enrichTitle(after.ID, models.SourceSpotify, u.URL)
		}

	case SetSoundCloudURL:
		if c.shouldEnrich(before.SoundCloudURL, after, models.SourceSoundCloud, u.URL) {
			go c.enrichTitle(after.ID, models.SourceSoundCloud, u.URL)
		}

	case SetAudioRef:
		// A fresh upload can lend its probed title to a snippet that has
		// no name yet.
		if c.media == nil || after.SongName != "" {
			return
		}
		if entry, ok := c.media.Resolve(u.URL); ok && entry.Title != "" {
			c.fillSongName(after.ID, entry.Title)
		}
	}
}

// shouldEnrich gates the best-effort title lookup: only when an enricher is
// wired, the name is still empty, and the URL changed into the service's
// canonical track shape.
func (c *Controller) shouldEnrich(previous string, after models.Snippet, kind models.AudioSourceKind, url string) bool {
	if c.enricher == nil || after.SongName != "" {
		return false
	}
	if !enrich.IsTrackURL(kind, url) {
		return false
	}
	return previous != url || !enrich.IsTrackURL(kind, previous)
}

// enrichTitle runs the lookup off the caller's goroutine. All failures are
// swallowed; the worst outcome is an unfilled name.
func (c *Controller) enrichTitle(id string, kind models.AudioSourceKind, url string) {
	title, err := c.enricher.TrackTitle(kind, url)
	if err != nil {
		c.logger.WithError(err).WithField("snippet_id", id).Debug("Track title lookup failed")
		return
	}
	c.fillSongName(id, title)
}

// fillSongName sets the name only if it is still empty when the result
// arrives. A name the user typed in the meantime wins.
func (c *Controller) fillSongName(id, title string) {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 || c.snippets[idx].SongName != "" {
		c.mu.Unlock()
		return
	}
	c.snippets[idx].SongName = title
	after := c.snippets[idx]
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.queue.enqueue(persistOp{kind: opUpsert, snippet: after, snapshot: snapshot})

	c.logger.WithFields(logrus.Fields{
		"snippet_id": id,
		"title":      title,
	}).Info("Song name pre-filled from metadata")
}

// Delete removes the snippet, stops any playback bound to it, and releases
// its ephemeral upload.
func (c *Controller) Delete(id string) error {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrSnippetNotFound
	}
	removed := c.snippets[idx]
	c.snippets = append(c.snippets[:idx], c.snippets[idx+1:]...)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.playback.Stop(id)

	if c.media != nil && removed.AudioURL != "" {
		if ref, ok := media.RefFromPath(removed.AudioURL); ok {
			c.media.Release(ref)
		}
	}

	c.queue.enqueue(persistOp{kind: opDelete, id: id, snapshot: snapshot})

	c.logger.WithField("snippet_id", id).Info("Snippet deleted")
	return nil
}

// StartPlayback begins playing the snippet's uploaded audio, seeking to the
// decoded start time when one is set. Only uploaded-file snippets play
// here; external tracks play inside their embeds.
func (c *Controller) StartPlayback(id string) error {
	snippet, ok := c.Get(id)
	if !ok {
		return ErrSnippetNotFound
	}
	if snippet.AudioType != models.SourceFile {
		return ErrNotUploadedAudio
	}

	offset := 0.0
	if snippet.StartTime != "" && snippet.StartTime != timecode.Default {
		offset = float64(timecode.Parse(snippet.StartTime))
	}

	c.playback.Play(id, offset)
	return nil
}

// CaptureStartTime reads the current playback offset of the element bound
// to the snippet and stores it as the start time.
func (c *Controller) CaptureStartTime(id string) (models.Snippet, error) {
	if _, ok := c.Get(id); !ok {
		return models.Snippet{}, ErrSnippetNotFound
	}

	position, ok := c.playback.Position(id)
	if !ok {
		return models.Snippet{}, ErrNoPlayback
	}

	return c.Apply(id, SetStartTime{Text: timecode.Format(int(position))})
}

// Get returns the snippet with the given ID.
func (c *Controller) Get(id string) (models.Snippet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return models.Snippet{}, false
	}
	return c.snippets[idx], true
}

// Snapshot returns a copy of the collection in display order.
func (c *Controller) Snapshot() []models.Snippet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Len returns the number of snippets.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snippets)
}

// Flush blocks until every persistence write enqueued so far has landed.
// Useful as a write barrier in tests and during shutdown.
func (c *Controller) Flush() {
	c.queue.flush()
}

// Close drains the persistence queue and stops its worker.
func (c *Controller) Close() {
	c.queue.close()
}

// indexOf returns the position of id in the collection, or -1. Callers hold
// at least a read lock.
func (c *Controller) indexOf(id string) int {
	for i := range c.snippets {
		if c.snippets[i].ID == id {
			return i
		}
	}
	return -1
}

// snapshotLocked copies the collection. Callers hold at least a read lock.
func (c *Controller) snapshotLocked() []models.Snippet {
	snapshot := make([]models.Snippet, len(c.snippets))
	copy(snapshot, c.snippets)
	return snapshot
}
