package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/serrynah/music-bites/internal/playback"
	"github.com/serrynah/music-bites/internal/store"

	"github.com/gorilla/websocket"
)

const eventWriteTimeout = 5 * time.Second

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventMessage is one push frame on the events socket.
type eventMessage struct {
	Type      string      `json:"type"` // "storage" or "playback"
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// eventHub fans storage demotions and playback state changes out to every
// connected events socket. The editor uses it to flip its storage banner
// and spin exactly one play indicator without polling.
type eventHub struct {
	server *SnippetServer

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	storageCh  <-chan store.StatusEvent
	playbackCh <-chan playback.State
	done       chan struct{}
}

func newEventHub(server *SnippetServer) *eventHub {
	return &eventHub{
		server:  server,
		clients: make(map[*websocket.Conn]struct{}),
		done:    make(chan struct{}),
	}
}

// start subscribes to the state sources and begins forwarding.
func (h *eventHub) start() {
	h.storageCh = h.server.router.Subscribe()
	h.playbackCh = h.server.coordinator.Subscribe()
	go h.run()
}

func (h *eventHub) run() {
	for {
		select {
		case event, ok := <-h.storageCh:
			if !ok {
				return
			}
			h.broadcast(eventMessage{
				Type:      "storage",
				Data:      event,
				Timestamp: time.Now().UnixMilli(),
			})
		case state, ok := <-h.playbackCh:
			if !ok {
				return
			}
			h.broadcast(eventMessage{
				Type:      "playback",
				Data:      state,
				Timestamp: time.Now().UnixMilli(),
			})
		case <-h.done:
			return
		}
	}
}

// broadcast writes the message to every client, dropping clients whose
// writes fail.
func (h *eventHub) broadcast(msg eventMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			h.server.logger.WithError(err).Debug("Dropping events client after write failure")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *eventHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *eventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// stop unsubscribes from the state sources and closes all clients.
func (h *eventHub) stop() {
	close(h.done)
	h.server.router.Unsubscribe(h.storageCh)
	h.server.coordinator.Unsubscribe(h.playbackCh)

	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
}

// handleEvents upgrades the connection and parks it for pushes. The
// current storage and playback state are sent immediately so a client
// starts consistent.
func (ss *SnippetServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		ss.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	// Send the current state before registering: once the hub knows the
	// connection it may write from its own goroutine, and the websocket
	// allows only one concurrent writer.
	now := time.Now().UnixMilli()
	conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	if err := conn.WriteJSON(eventMessage{Type: "storage", Data: ss.router.Status(), Timestamp: now}); err != nil {
		conn.Close()
		return
	}
	conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	if err := conn.WriteJSON(eventMessage{Type: "playback", Data: ss.coordinator.State(), Timestamp: now}); err != nil {
		conn.Close()
		return
	}

	ss.events.add(conn)

	// Clients never send anything meaningful; the read loop only notices
	// the connection going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	ss.events.remove(conn)
}
