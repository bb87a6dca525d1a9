package store

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/cardczar/internal/game"
)

const (
	writerQueueSize = 256
	writerRetries   = 3
	writerBackoff   = 250 * time.Millisecond
)

// Writer persists snapshots asynchronously. Enqueue never blocks game
// progress: when the queue is full the snapshot is dropped, which is safe
// because a newer snapshot for the same session supersedes it anyway.
type Writer struct {
	store  *Store
	logger *log.Logger

	queue chan game.Snapshot
	stop  chan struct{}
	wg    sync.WaitGroup
}

// NewWriter starts the background writer.
func NewWriter(store *Store, logger *log.Logger) *Writer {
	w := &Writer{
		store:  store,
		logger: logger.WithPrefix("store"),
		queue:  make(chan game.Snapshot, writerQueueSize),
		stop:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Enqueue hands a snapshot to the background writer.
func (w *Writer) Enqueue(snap game.Snapshot) {
	select {
	case w.queue <- snap:
	default:
		w.logger.Warn("Snapshot queue full, dropping write", "session", snap.ID, "round", snap.Round)
	}
}

// Stop drains pending snapshots and stops the writer.
func (w *Writer) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *Writer) run() {
	defer w.wg.Done()
	for {
		select {
		case snap := <-w.queue:
			w.write(snap)
		case <-w.stop:
			for {
				select {
				case snap := <-w.queue:
					w.write(snap)
				default:
					return
				}
			}
		}
	}
}

// write retries a bounded number of times; persistent failure is logged and
// the snapshot abandoned, never surfaced to game play.
func (w *Writer) write(snap game.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt < writerRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(writerBackoff * time.Duration(attempt))
		}
		if err = w.store.Save(ctx, snap); err == nil {
			return
		}
		w.logger.Warn("Snapshot write failed", "session", snap.ID, "attempt", attempt+1, "err", err)
	}
	w.logger.Error("Giving up on snapshot write", "session", snap.ID, "round", snap.Round, "err", err)
}
