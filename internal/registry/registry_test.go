package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cardczar/internal/game"
)

func testSession(id string) *game.Session {
	return &game.Session{ID: id, JudgeIndex: -1, Settings: game.DefaultSettings()}
}

func TestDoUnknownSession(t *testing.T) {
	r := New()
	err := r.Do(context.Background(), "missing", func(s *game.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDoRunsAgainstSession(t *testing.T) {
	r := New()
	r.Put(testSession("s1"))

	err := r.Do(context.Background(), "s1", func(s *game.Session) error {
		s.Round = 7
		return nil
	})
	require.NoError(t, err)

	var got int
	require.NoError(t, r.Do(context.Background(), "s1", func(s *game.Session) error {
		got = s.Round
		return nil
	}))
	assert.Equal(t, 7, got)
}

func TestFIFOOrderPerSession(t *testing.T) {
	r := New()
	r.Put(testSession("s1"))

	// Block the worker so later ops queue up behind the gate.
	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = r.Do(context.Background(), "s1", func(s *game.Session) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	const n = 20
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Do(context.Background(), "s1", func(s *game.Session) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		// Give each goroutine time to enqueue before the next, so queue
		// order matches submission order.
		time.Sleep(5 * time.Millisecond)
	}

	close(gate)
	wg.Wait()

	require.Len(t, order, n)
	for i, got := range order {
		assert.Equal(t, i, got, "operations must run in arrival order")
	}
}

func TestCrossSessionParallelism(t *testing.T) {
	r := New()
	r.Put(testSession("slow"))
	r.Put(testSession("fast"))

	release := make(chan struct{})
	holding := make(chan struct{})
	go func() {
		_ = r.Do(context.Background(), "slow", func(s *game.Session) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	// The other session must progress while "slow" holds its slot.
	done := make(chan struct{})
	go func() {
		_ = r.Do(context.Background(), "fast", func(s *game.Session) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unrelated session blocked by another session's operation")
	}
	close(release)
}

func TestOpErrorPropagates(t *testing.T) {
	r := New()
	r.Put(testSession("s1"))

	want := game.ErrInvalidPhase
	err := r.Do(context.Background(), "s1", func(s *game.Session) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestRemove(t *testing.T) {
	r := New()
	r.Put(testSession("s1"))
	require.True(t, r.Has("s1"))

	r.Remove("s1")
	assert.False(t, r.Has("s1"))

	err := r.Do(context.Background(), "s1", func(s *game.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDoContextCancelled(t *testing.T) {
	r := New()
	r.Put(testSession("s1"))

	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = r.Do(context.Background(), "s1", func(s *game.Session) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	ran := make(chan struct{})
	go func() {
		errCh <- r.Do(ctx, "s1", func(s *game.Session) error {
			close(ran)
			return nil
		})
	}()

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	// The admitted operation still runs after the caller stops waiting.
	close(gate)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("queued operation never ran")
	}
}
