package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/serrynah/music-bites/pkg/models"

	"github.com/sirupsen/logrus"
)

// Mode identifies which backend the router currently writes to.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// StatusEvent describes the router's persistence mode. A demotion event
// carries the reason the remote store was abandoned.
type StatusEvent struct {
	Mode   Mode      `json:"mode"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Router picks the active persistence backend. It starts in remote mode
// when a remote store was configured and demotes to local on the first
// remote failure. Demotion is one-way for the process lifetime; there is
// no reconnection. When demoting on a write, the caller's current
// in-memory collection snapshot is mirrored into local storage so no data
// is lost.
type Router struct {
	mu        sync.RWMutex
	mode      Mode
	reason    string
	changedAt time.Time
	listeners []chan StatusEvent

	remote Store
	local  *Local
	logger *logrus.Logger
}

// NewRouter selects the starting mode: remote when a remote store is
// present (pass nil when the remote endpoint or credential is missing),
// local otherwise.
func NewRouter(remote Store, local *Local, logger *logrus.Logger) *Router {
	r := &Router{
		mode:      ModeLocal,
		changedAt: time.Now(),
		listeners: make([]chan StatusEvent, 0),
		remote:    remote,
		local:     local,
		logger:    logger,
	}
	if remote != nil {
		r.mode = ModeRemote
	} else {
		r.reason = "remote store not configured"
	}
	return r
}

// Mode returns the currently active persistence mode.
func (r *Router) Mode() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// Status returns the current mode with the reason it was entered.
func (r *Router) Status() StatusEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return StatusEvent{Mode: r.mode, Reason: r.reason, At: r.changedAt}
}

// Load lists the collection from the active backend. A remote failure
// demotes and falls through to local storage, which may legitimately be
// empty if it was never used.
func (r *Router) Load() ([]models.Snippet, error) {
	if r.Mode() == ModeRemote {
		snippets, err := r.remote.List()
		if err == nil {
			return snippets, nil
		}
		r.demote("list", err, nil)
	}
	return r.local.List()
}

// Save routes an upsert to the active backend. On remote failure the
// router demotes and mirrors the provided in-memory snapshot (which already
// contains the mutation) into local storage.
func (r *Router) Save(snippet models.Snippet, snapshot []models.Snippet) error {
	if r.Mode() == ModeRemote {
		err := r.remote.Upsert(snippet)
		if err == nil {
			return nil
		}
		if demoted, mirrorErr := r.demote("upsert", err, snapshot); demoted {
			// The mirrored snapshot already contains this mutation.
			return mirrorErr
		}
	}
	return r.local.Upsert(snippet)
}

// Remove routes a delete to the active backend. On remote failure the
// record stays deleted: the mirrored snapshot, which no longer contains it,
// becomes the local truth.
func (r *Router) Remove(id string, snapshot []models.Snippet) error {
	if r.Mode() == ModeRemote {
		err := r.remote.Delete(id)
		if err == nil {
			return nil
		}
		if demoted, mirrorErr := r.demote("delete", err, snapshot); demoted {
			return mirrorErr
		}
	}
	return r.local.Delete(id)
}

// demote switches to local mode, mirrors the snapshot when one is given,
// and notifies subscribers. Only the first failure demotes; a caller that
// lost the demotion race reports false and falls back to the local write
// it would otherwise skip.
func (r *Router) demote(operation string, cause error, snapshot []models.Snippet) (bool, error) {
	r.mu.Lock()
	if r.mode == ModeLocal {
		r.mu.Unlock()
		return false, nil
	}
	r.mode = ModeLocal
	r.reason = fmt.Sprintf("remote %s failed: %v", operation, cause)
	r.changedAt = time.Now()
	event := StatusEvent{Mode: r.mode, Reason: r.reason, At: r.changedAt}
	listeners := make([]chan StatusEvent, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	r.logger.WithError(cause).WithField("operation", operation).
		Warn("Remote store failure, switching to local storage")

	var mirrorErr error
	if snapshot != nil {
		if mirrorErr = r.local.ReplaceAll(snapshot); mirrorErr != nil {
			r.logger.WithError(mirrorErr).Error("Failed to mirror collection into local storage")
		}
	}

	for _, listener := range listeners {
		select {
		case listener <- event:
		default:
			// Listener is full; it will catch up via Status().
		}
	}

	return true, mirrorErr
}

// Subscribe adds a listener for mode changes
func (r *Router) Subscribe() <-chan StatusEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan StatusEvent, 10) // Buffered channel to prevent blocking
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe removes a listener (call this when done to prevent memory leaks)
func (r *Router) Unsubscribe(ch <-chan StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			break
		}
	}
}
