package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegisterRejectsBadSchedule(t *testing.T) {
	s := NewService()
	if err := s.Register("bad", "@every sometimes", func(context.Context) {}); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if err := s.Register("ok", "@every 1h", func(context.Context) {}); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
}

func TestDueJobsRunAndReschedule(t *testing.T) {
	s := NewService()
	s.tick = 5 * time.Millisecond

	var runs atomic.Int64
	if err := s.Register("counter", "@every 10ms", func(context.Context) {
		runs.Add(1)
	}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("job ran %d times, want at least 2", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewService()
	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
