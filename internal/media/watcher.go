package media

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// startWatcher initializes fsnotify monitoring of the session upload
// directory so entries whose backing file disappears out-of-band get
// invalidated instead of lingering as dead references.
func (r *Registry) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	r.watcher = watcher

	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		r.watcher = nil
		return err
	}

	go r.watchFiles()

	r.logger.WithField("dir", r.dir).Debug("Upload watcher started")
	return nil
}

// watchFiles selects on watcher channels and dispatches events.
func (r *Registry) watchFiles() {
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			r.handleFileEvent(event)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.WithError(err).Error("Upload watcher error")

		case <-r.done:
			return
		}
	}
}

// handleFileEvent reacts to uploads vanishing from the session directory.
func (r *Registry) handleFileEvent(event fsnotify.Event) {
	// Ignore temporary and hidden files
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		r.invalidate(event.Name)
	}
}

// invalidate drops the entry backed by the given path, if any. Release
// already removed the entry by the time its file deletion fires an event,
// so most invalidations are no-ops.
func (r *Registry) invalidate(path string) {
	r.mu.Lock()
	var dropped string
	for ref, entry := range r.entries {
		if entry.path == path {
			delete(r.entries, ref)
			dropped = ref
			break
		}
	}
	r.mu.Unlock()

	if dropped != "" {
		r.logger.WithField("ref", dropped).Warn("Upload file disappeared, reference invalidated")
	}
}
