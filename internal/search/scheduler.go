package search

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/logger"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// DefaultShutdownGrace bounds how long Run waits for workers after every
// trial has been accounted for
const DefaultShutdownGrace = 30 * time.Minute

// Observer receives scheduler events. All methods are called from the
// goroutine executing Run, never from a worker.
type Observer interface {
	// Submitted is called after each admission
	Submitted(submitted, total int)
	// SubmissionFinished is called once, after the last admission
	SubmissionFinished(submitted, total int)
	// Resolved is called for every terminal outcome in completion order.
	// A non-nil error aborts the run.
	Resolved(outcome models.Outcome, resolved, submitted int) error
}

// Options configures a Scheduler
type Options struct {
	// MaxConcurrency caps running trials; zero means runtime.NumCPU()
	MaxConcurrency int
	ShutdownGrace  time.Duration
	// OnTransition, when set, is called on every trial state change. It may be
	// called concurrently from workers.
	OnTransition func(ordinal int, state models.TrialState)
}

// Summary describes a finished run
type Summary struct {
	Total       int
	Submitted   int
	Completed   int
	Failed      int
	PeakRunning int
	Duration    time.Duration
}

// Scheduler runs a fixed batch of trials with at most Cap() of them running
// at once. Admission follows submission order.
type Scheduler struct {
	runner TrialRunner
	cap    int64
	sem    *semaphore.Weighted
	grace  time.Duration
	onTr   func(ordinal int, state models.TrialState)

	running atomic.Int64
	peak    atomic.Int64
}

// NewScheduler creates a scheduler
func NewScheduler(runner TrialRunner, opts Options) *Scheduler {
	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	if limit < 1 {
		limit = 1
	}
	grace := opts.ShutdownGrace
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}
	return &Scheduler{
		runner: runner,
		cap:    int64(limit),
		sem:    semaphore.NewWeighted(int64(limit)),
		grace:  grace,
		onTr:   opts.OnTransition,
	}
}

// Cap returns the concurrency cap
func (s *Scheduler) Cap() int {
	return int(s.cap)
}

// Running returns the number of trials currently running
func (s *Scheduler) Running() int {
	return int(s.running.Load())
}

// Idle reports whether every concurrency slot is free
func (s *Scheduler) Idle() bool {
	if !s.sem.TryAcquire(s.cap) {
		return false
	}
	s.sem.Release(s.cap)
	return true
}

func (s *Scheduler) transition(ordinal int, state models.TrialState) {
	if s.onTr != nil {
		s.onTr(ordinal, state)
	}
}

// Run submits every trial, drains their outcomes and returns once each
// submitted trial is terminal. Cancelling ctx stops further submissions and
// is passed to running trials; Run then still drains what was submitted and
// returns ctx.Err(). An error from the observer aborts the run.
func (s *Scheduler) Run(ctx context.Context, trials []Trial, obs Observer) (Summary, error) {
	start := time.Now()
	summary := Summary{Total: len(trials)}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// buffered so workers never block on hand-off
	results := make(chan models.Outcome, len(trials))
	var wg sync.WaitGroup
	var runErr error

	resolve := func(o models.Outcome) {
		if o.Failed() {
			summary.Failed++
		} else {
			summary.Completed++
		}
		s.transition(o.Ordinal, o.State())
		if runErr != nil {
			return
		}
		if err := obs.Resolved(o, summary.Completed+summary.Failed, summary.Submitted); err != nil {
			runErr = err
			cancel()
		}
	}

	for _, tr := range trials {
		s.transition(tr.Ordinal, models.TrialPending)
	}

	next := 0
	for next < len(trials) && runErr == nil {
		if err := ctx.Err(); err != nil {
			break
		}
		if s.sem.TryAcquire(1) {
			tr := trials[next]
			next++
			s.transition(tr.Ordinal, models.TrialAdmitted)
			wg.Add(1)
			go s.work(ctx, tr, results, &wg)
			summary.Submitted++
			obs.Submitted(summary.Submitted, summary.Total)
			continue
		}
		// Saturated. A worker frees its slot before handing off its outcome,
		// so every receive here means a slot is available.
		select {
		case o := <-results:
			resolve(o)
		case <-ctx.Done():
		}
	}
	if runErr == nil {
		obs.SubmissionFinished(summary.Submitted, summary.Total)
	}

	for summary.Completed+summary.Failed < summary.Submitted {
		resolve(<-results)
	}

	s.shutdown(&wg)
	summary.PeakRunning = int(s.peak.Load())
	summary.Duration = time.Since(start)

	if runErr != nil {
		return summary, runErr
	}
	if summary.Submitted < summary.Total {
		if err := context.Cause(ctx); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// work runs one admitted trial and hands its outcome to the drain loop
func (s *Scheduler) work(ctx context.Context, tr Trial, results chan<- models.Outcome, wg *sync.WaitGroup) {
	defer wg.Done()
	results <- s.runAdmitted(ctx, tr)
}

// runAdmitted holds the trial's slot for exactly the duration of the call
func (s *Scheduler) runAdmitted(ctx context.Context, tr Trial) (outcome models.Outcome) {
	defer s.sem.Release(1)

	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	outcome = models.Outcome{Ordinal: tr.Ordinal, Config: tr.Config}
	defer func() {
		if r := recover(); r != nil {
			outcome.Result = nil
			outcome.Err = &TrialFailure{Ordinal: tr.Ordinal, Config: tr.Config, Cause: fmt.Errorf("trial runner panicked: %v", r)}
		}
	}()

	s.transition(tr.Ordinal, models.TrialRunning)
	result, err := s.runner.Run(ctx, tr)
	if err != nil {
		var failure *TrialFailure
		if !errors.As(err, &failure) {
			err = &TrialFailure{Ordinal: tr.Ordinal, Config: tr.Config, Cause: err}
		}
		outcome.Err = err
		return outcome
	}
	if result == nil {
		outcome.Err = &TrialFailure{Ordinal: tr.Ordinal, Config: tr.Config, Cause: errors.New("trial produced no result")}
		return outcome
	}
	outcome.Result = result
	return outcome
}

// shutdown waits for worker goroutines to exit, bounded by the grace period
func (s *Scheduler) shutdown(wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.grace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		logger.Warn("workers did not terminate within the grace period", "grace", s.grace, "running", s.Running())
	}
}
