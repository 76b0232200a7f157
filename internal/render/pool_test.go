package render

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoReturnsResult(t *testing.T) {
	pool := NewPool(Func(func(ctx context.Context, input string) ([]byte, error) {
		return []byte("out:" + input), nil
	}), 2)
	defer pool.Stop()

	got, err := pool.Do(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(got) != "out:doc" {
		t.Errorf("got %q", got)
	}
}

func TestDoPropagatesRendererError(t *testing.T) {
	want := errors.New("engine failure")
	pool := NewPool(Func(func(ctx context.Context, input string) ([]byte, error) {
		return nil, want
	}), 1)
	defer pool.Stop()

	_, err := pool.Do(context.Background(), "doc")
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestConcurrencyBoundedByWorkers(t *testing.T) {
	var active, peak atomic.Int64
	release := make(chan struct{})

	pool := NewPool(Func(func(ctx context.Context, input string) ([]byte, error) {
		cur := active.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		<-release
		active.Add(-1)
		return []byte("ok"), nil
	}), 2)
	defer pool.Stop()

	done := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, err := pool.Do(context.Background(), "doc")
			done <- err
		}()
	}

	// Give the submissions time to saturate the workers.
	time.Sleep(50 * time.Millisecond)
	if got := pool.Busy(); got != 2 {
		t.Errorf("busy = %d, want 2", got)
	}
	close(release)

	for i := 0; i < 5; i++ {
		if err := <-done; err != nil {
			t.Errorf("job %d: %v", i, err)
		}
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrent renders = %d, want <= 2", got)
	}
}

func TestAbandonedWaitDoesNotCancelResult(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan struct{})

	pool := NewPool(Func(func(ctx context.Context, input string) ([]byte, error) {
		close(started)
		// Ignores ctx, as a renderer that cannot be cancelled would.
		time.Sleep(100 * time.Millisecond)
		close(finished)
		return []byte("late"), nil
	}), 1)
	defer pool.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := pool.Do(ctx, "doc")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	<-started
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("worker did not finish the abandoned job")
	}
}

func TestDoRefusesWhenQueueBlockedAndContextExpires(t *testing.T) {
	release := make(chan struct{})

	pool := NewPool(Func(func(ctx context.Context, input string) ([]byte, error) {
		<-release
		return []byte("ok"), nil
	}), 1)
	defer pool.Stop()
	defer close(release)

	// Occupy the single worker.
	go pool.Do(context.Background(), "occupier")
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := pool.Do(ctx, "queued")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}
