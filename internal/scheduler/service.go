package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okonma/pressgate/internal/logger"
)

// Job is a named housekeeping task with a schedule expression.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context)

	nextRun time.Time
}

// Service executes registered jobs when their schedules come due. Jobs run
// inline on the scheduler goroutine; they are expected to be short.
type Service struct {
	mu   sync.Mutex
	jobs []*Job
	stop chan struct{}
	once sync.Once

	// Check cadence. Kept short relative to the finest supported schedule.
	tick time.Duration
}

// NewService creates an empty scheduler.
func NewService() *Service {
	return &Service{
		stop: make(chan struct{}),
		tick: 10 * time.Second,
	}
}

// Register adds a job. Returns an error for an invalid schedule expression.
// Must be called before Start.
func (s *Service) Register(name, schedule string, run func(ctx context.Context)) error {
	next, err := NextRun(schedule, time.Now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &Job{
		Name:     name,
		Schedule: schedule,
		Run:      run,
		nextRun:  next,
	})
	return nil
}

// Start runs the scheduling loop until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Starting scheduler", "jobs", len(s.jobs))
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop halts the loop. Idempotent.
func (s *Service) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Service) runDue(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	var due []*Job
	for _, j := range s.jobs {
		if !j.nextRun.After(now) {
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, k int) bool { return due[i].nextRun.Before(due[k].nextRun) })

	for _, j := range due {
		start := time.Now()
		j.Run(ctx)
		logger.DebugContext(ctx, "Scheduled job ran",
			"job", j.Name,
			"duration_ms", time.Since(start).Milliseconds())

		next, err := NextRun(j.Schedule, time.Now())
		if err != nil {
			// Validated at Register, so this only happens if the expression
			// semantics change underneath us. Park the job rather than spin.
			logger.ErrorContext(ctx, "Failed to reschedule job", "job", j.Name, "error", err)
			next = now.Add(24 * time.Hour)
		}

		s.mu.Lock()
		j.nextRun = next
		s.mu.Unlock()
	}
}
