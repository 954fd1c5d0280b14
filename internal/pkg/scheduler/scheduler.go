// Package scheduler provides deferred task execution for fire-and-forget
// continuations. Instead of leaking anonymous timers, callers hand tasks to
// a Scheduler, which gives the host application a single place to supervise
// in-flight work and lets tests substitute a synchronous driver.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task is a unit of deferred work. The context passed to the task is the
// one the task was scheduled with.
type Task func(ctx context.Context)

// Scheduler runs tasks after a delay. Implementations must not block the
// caller of Schedule.
type Scheduler interface {
	// Schedule arranges for task to run after delay has elapsed. If ctx is
	// canceled before the delay expires, the task is dropped.
	Schedule(ctx context.Context, delay time.Duration, task Task)
}

// timerScheduler runs each task on its own goroutine after a timer fires.
// A WaitGroup tracks in-flight tasks so hosts can drain on shutdown.
type timerScheduler struct {
	wg sync.WaitGroup
}

var _ Scheduler = (*timerScheduler)(nil)

// New returns a timer-backed Scheduler.
func New() *timerScheduler {
	return new(timerScheduler)
}

// Schedule implements the Scheduler interface. The task runs on a new
// goroutine once the delay elapses, unless ctx is canceled first.
func (s *timerScheduler) Schedule(ctx context.Context, delay time.Duration, task Task) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			task(ctx)
		}
	}()
}

// Wait blocks until every scheduled task has either run or been dropped.
// Tasks that schedule follow-up tasks are waited on as well, since the
// follow-up is registered before the parent returns.
func (s *timerScheduler) Wait() {
	s.wg.Wait()
}
