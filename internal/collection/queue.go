package collection

import (
	"sync"

	"github.com/serrynah/music-bites/internal/store"
	"github.com/serrynah/music-bites/pkg/models"

	"github.com/sirupsen/logrus"
)

type opKind int

const (
	opUpsert opKind = iota
	opDelete
)

// persistOp is one queued write. Every op carries the in-memory collection
// snapshot taken right after its mutation, which the router mirrors into
// local storage if this particular write is the one that demotes.
type persistOp struct {
	kind     opKind
	snippet  models.Snippet
	id       string
	snapshot []models.Snippet
}

// persistQueue applies writes in the order the edits happened, on a single
// background worker, so callers never wait on the network and a slow early
// write cannot land after a later one.
type persistQueue struct {
	router *store.Router
	logger *logrus.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending []persistOp
	busy    bool
	closed  bool
	done    chan struct{}
}

func newPersistQueue(router *store.Router, logger *logrus.Logger) *persistQueue {
	q := &persistQueue{
		router: router,
		logger: logger,
		done:   make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// enqueue adds a write without blocking. Writes enqueued after close are
// dropped; by then the owning controller is shutting down.
func (q *persistQueue) enqueue(op persistOp) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.pending = append(q.pending, op)
	q.cond.Broadcast()
}

func (q *persistQueue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			// Closed and drained.
			q.mu.Unlock()
			return
		}
		op := q.pending[0]
		q.pending = q.pending[1:]
		q.busy = true
		q.mu.Unlock()

		q.process(op)

		q.mu.Lock()
		q.busy = false
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

func (q *persistQueue) process(op persistOp) {
	var err error
	switch op.kind {
	case opUpsert:
		err = q.router.Save(op.snippet, op.snapshot)
	case opDelete:
		err = q.router.Remove(op.id, op.snapshot)
	}
	if err != nil {
		// The router already handled demotion; anything left over is a
		// local-store problem worth shouting about.
		q.logger.WithError(err).Error("Persistence write failed")
	}
}

// flush blocks until every write enqueued so far has been processed.
func (q *persistQueue) flush() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.pending) > 0 || q.busy {
		q.cond.Wait()
	}
}

// close drains outstanding writes and stops the worker.
func (q *persistQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	<-q.done
}
