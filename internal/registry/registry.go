// Package registry holds the single authoritative in-memory instance of
// each live session and serializes mutations against it. Every operation on
// a session runs on that session's worker goroutine in FIFO admission order;
// sessions with different ids progress fully in parallel. An operation owns
// the session exclusively for its whole duration, including any awaited
// decision calls it makes, so a human action queued behind a deciding bot
// waits its turn instead of racing it.
package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/lox/cardczar/internal/game"
)

// ErrSessionNotFound is returned for ids with no live session.
var ErrSessionNotFound = errors.New("session not found")

// Op reads and mutates a session while holding its exclusive slot.
type Op func(*game.Session) error

// Registry maps session ids to their serializing workers.
type Registry struct {
	mu      sync.RWMutex
	workers map[string]*worker
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{workers: make(map[string]*worker)}
}

// Put registers a session and starts its serializer. A session already
// registered under the same id is replaced; its pending operations still
// drain against the old instance.
func (r *Registry) Put(sess *game.Session) {
	w := newWorker(sess)
	go w.run()

	r.mu.Lock()
	old := r.workers[sess.ID]
	r.workers[sess.ID] = w
	r.mu.Unlock()

	if old != nil {
		old.close()
	}
}

// Do enqueues op for the session and waits for it to execute. Queued
// operations run in FIFO order. A cancelled context abandons the wait but
// not the operation: once admitted to the queue it will still run.
func (r *Registry) Do(ctx context.Context, id string, op Op) error {
	r.mu.RLock()
	w, ok := r.workers[id]
	r.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	done, err := w.enqueue(op)
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Remove unregisters a session. Operations already queued still run; new
// ones get ErrSessionNotFound.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	w, ok := r.workers[id]
	delete(r.workers, id)
	r.mu.Unlock()
	if ok {
		w.close()
	}
}

// Has reports whether a session id is live.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.workers[id]
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

type task struct {
	op   Op
	done chan error
}

// worker serializes operations for one session. The queue is unbounded;
// admission order is queue order.
type worker struct {
	sess *game.Session

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool
}

func newWorker(sess *game.Session) *worker {
	w := &worker{sess: sess}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *worker) enqueue(op Op) (chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrSessionNotFound
	}
	done := make(chan error, 1)
	w.queue = append(w.queue, task{op: op, done: done})
	w.cond.Signal()
	return done, nil
}

func (w *worker) close() {
	w.mu.Lock()
	w.closed = true
	w.cond.Signal()
	w.mu.Unlock()
}

func (w *worker) run() {
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 && w.closed {
			w.mu.Unlock()
			return
		}
		t := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		t.done <- t.op(w.sess)
	}
}
