// Package playback mirrors the state of the browser's uploaded-file audio
// elements so the rest of the system can rely on one invariant: at most one
// snippet is playing at any instant. The UI reports play, pause, progress,
// and ended events; the coordinator arbitrates them and answers position
// queries for start-time capture.
package playback

import (
	"sync"
	"time"
)

// State represents the current playback state
type State struct {
	CurrentID string    `json:"currentId,omitempty"`
	IsPlaying bool      `json:"isPlaying"`
	Position  float64   `json:"position"` // seconds into the current element
	UpdatedAt time.Time `json:"updatedAt"`
}

// Coordinator manages playback state and notifies listeners
type Coordinator struct {
	state     State
	mutex     sync.RWMutex
	listeners []chan State
}

// NewCoordinator creates a playback coordinator
func NewCoordinator() *Coordinator {
	return &Coordinator{
		state:     State{UpdatedAt: time.Now()},
		listeners: make([]chan State, 0),
	}
}

// State returns the current playback state (thread-safe)
func (c *Coordinator) State() State {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state
}

// Play binds id as the playing element, displacing whatever played before.
// The offset is where playback starts, decoded from the snippet's start
// time by the caller.
func (c *Coordinator) Play(id string, offset float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.CurrentID != id {
		// Any previously playing element is paused by the switch.
		c.state.Position = offset
	} else if offset > 0 {
		c.state.Position = offset
	}
	c.state.CurrentID = id
	c.state.IsPlaying = true
	c.state.UpdatedAt = time.Now()
	c.notifyListeners()
}

// Pause stops playback if id is the playing element; other ids are ignored.
func (c *Coordinator) Pause(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.CurrentID != id {
		return
	}
	c.state.IsPlaying = false
	c.state.UpdatedAt = time.Now()
	c.notifyListeners()
}

// Progress records the element's reported playback position. Reports for
// anything but the bound element are stale events and ignored.
func (c *Coordinator) Progress(id string, seconds float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.CurrentID != id {
		return
	}
	c.state.Position = seconds
	c.state.UpdatedAt = time.Now()
	c.notifyListeners()
}

// Ended clears the playing element on natural end-of-playback.
func (c *Coordinator) Ended(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.CurrentID != id {
		return
	}
	c.state = State{UpdatedAt: time.Now()}
	c.notifyListeners()
}

// Stop force-clears playback for id, whether playing or paused. Used when a
// snippet is deleted or its source kind moves away from uploaded audio.
func (c *Coordinator) Stop(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.CurrentID != id {
		return
	}
	c.state = State{UpdatedAt: time.Now()}
	c.notifyListeners()
}

// Position returns the current offset of the element bound to id. The
// second return is false when id is not the bound element.
func (c *Coordinator) Position(id string) (float64, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.state.CurrentID != id {
		return 0, false
	}
	return c.state.Position, true
}

// Playing reports whether id is the element currently in the playing state.
func (c *Coordinator) Playing(id string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state.CurrentID == id && c.state.IsPlaying
}

// Subscribe adds a listener for state changes
func (c *Coordinator) Subscribe() <-chan State {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ch := make(chan State, 10) // Buffered channel to prevent blocking
	c.listeners = append(c.listeners, ch)
	return ch
}

// Unsubscribe removes a listener (call this when done to prevent memory leaks)
func (c *Coordinator) Unsubscribe(ch <-chan State) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for i, listener := range c.listeners {
		if listener == ch {
			close(listener)
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			break
		}
	}
}

// notifyListeners sends state updates to all subscribers (must be called with lock held)
func (c *Coordinator) notifyListeners() {
	for _, listener := range c.listeners {
		select {
		case listener <- c.state:
		default:
			// Listener is full; it will catch up on the next event.
		}
	}
}
