package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingWarmer struct {
	calls atomic.Int32
	err   error
}

func (w *countingWarmer) PrewarmAllCaches(context.Context) error {
	w.calls.Add(1)
	return w.err
}

func TestCacheRefreshWorkerTicksUntilCancelled(t *testing.T) {
	warmer := &countingWarmer{err: errors.New("redis down")}
	w := NewCacheRefreshWorker(warmer, 2*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for warmer.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated refreshes, got %d", warmer.calls.Load())
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestCacheRefreshWorkerDisabled(t *testing.T) {
	warmer := &countingWarmer{}
	w := NewCacheRefreshWorker(warmer, 0, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker should return immediately")
	}
	if warmer.calls.Load() != 0 {
		t.Fatal("disabled worker must not refresh")
	}
}
