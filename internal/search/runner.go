package search

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/metrics"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/progress"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/sink"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/trainer"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/config"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/logger"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/utils"
)

// StatusReporter is told when a run starts and stops serving
type StatusReporter interface {
	SetServing(serving bool)
}

// Report describes a finished or interrupted grid search
type Report struct {
	RunID     string
	Generated int
	Resumed   int
	Schedule  Summary
	Sink      sink.Stats
	Dest      string
	Metrics   *metrics.Summary
}

// Runner wires generation, scheduling, progress and persistence for one run
type Runner struct {
	cfg       *config.Config
	trainer   trainer.Trainer
	data      trainer.Dataset
	line      *progress.Line
	status    StatusReporter
	collector *metrics.Collector
	runID     string
	open      func(config.Output) (sink.Writer, sink.Persisted, error)
}

// NewRunner creates a runner. cfg must already be validated.
func NewRunner(cfg *config.Config, t trainer.Trainer, data trainer.Dataset, line *progress.Line) *Runner {
	return &Runner{
		cfg:       cfg,
		trainer:   t,
		data:      data,
		line:      line,
		collector: metrics.NewCollector(),
		runID:     utils.GenerateRunID(),
		open:      sink.Open,
	}
}

// WithStatus attaches a status reporter
func (r *Runner) WithStatus(s StatusReporter) *Runner {
	r.status = s
	return r
}

// RunID returns the id of this run
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes the whole grid search. The returned report is non-nil once the
// destination has been opened, including when the run is interrupted.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	configs, err := GenerateNonEmpty(r.cfg.ResolvedSpace())
	if err != nil {
		return nil, err
	}

	w, persisted, err := r.open(r.cfg.Output)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			logger.Error("failed to close result destination", "dest", w.Dest(), "error", cerr)
		}
	}()
	if err := persisted.Verify(configs); err != nil {
		return nil, err
	}

	trials := NewTrials(configs, r.cfg.BaseSeed, func(ordinal int) bool {
		_, ok := persisted[ordinal]
		return ok
	})
	report := &Report{
		RunID:     r.runID,
		Generated: len(configs),
		Resumed:   len(persisted),
		Dest:      w.Dest(),
	}

	grace, err := r.cfg.GetShutdownGrace()
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown grace: %w", err)
	}
	sched := NewScheduler(NewExecutor(r.trainer, r.data), Options{
		MaxConcurrency: r.cfg.MaxConcurrency,
		ShutdownGrace:  grace,
		OnTransition: func(ordinal int, state models.TrialState) {
			logger.ForTrial(r.runID, ordinal).Debug("trial state changed", "state", state)
		},
	})

	r.banner(sched.Cap(), len(trials), len(persisted))

	batcher := sink.NewBatcher(w, r.cfg.BatchWriteSize, func(written int, dest string) {
		r.println(fmt.Sprintf("[INFO] Wrote %d results to %s.", written, dest))
	})
	obs := &runObserver{
		runID:     r.runID,
		line:      r.line,
		batcher:   batcher,
		collector: r.collector,
		submit:    progress.NewPhase("Submission Progress", "tasks", len(trials)),
	}

	if r.status != nil {
		r.status.SetServing(true)
		defer r.status.SetServing(false)
	}

	r.collector.Start()
	r.println("--- Submitting Tasks ---")
	summary, runErr := sched.Run(ctx, trials, obs)
	r.collector.Stop()
	r.finishLine()

	// a failed write is not retried; anything else still flushes what completed
	if obs.sinkErr == nil {
		if err := batcher.FlushRemaining(); err != nil && runErr == nil {
			runErr = err
		}
	}

	report.Schedule = summary
	report.Sink = batcher.Stats()
	report.Metrics = r.collector.GetSummary()

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			logger.Warn("grid search interrupted",
				"run_id", r.runID,
				"submitted", summary.Submitted,
				"completed", summary.Completed,
				"failed", summary.Failed,
				"persisted", report.Sink.Persisted)
		}
		return report, runErr
	}

	r.println(fmt.Sprintf("Grid search completed! Results saved to %s", w.Dest()))
	logger.Info("grid search finished",
		"run_id", r.runID,
		"completed", summary.Completed,
		"failed", summary.Failed,
		"peak_running", summary.PeakRunning,
		"duration", utils.FormatDuration(summary.Duration))
	if summary.Failed > 0 {
		logger.Warn("some trials failed", "run_id", r.runID, "failed", summary.Failed, "completed", summary.Completed)
	}
	if best := report.Metrics.Best; best != nil {
		logger.Info("best trial",
			"run_id", r.runID,
			"trial", best.Ordinal,
			"accuracy", best.Accuracy,
			"f1", best.F1,
			"config", best.Config.String())
	}
	return report, nil
}

func (r *Runner) banner(limit, trials, resumed int) {
	logger.Info("processor", "brand", cpuid.CPU.BrandName, "logical_cores", cpuid.CPU.LogicalCores, "run_id", r.runID)
	r.println(fmt.Sprintf("Available processors: %d", runtime.NumCPU()))
	r.println(fmt.Sprintf("Max concurrent training tasks: %d", limit))
	if resumed > 0 {
		r.println(fmt.Sprintf("Resuming: %d trials already persisted", resumed))
	}
	r.println(fmt.Sprintf("Starting grid search with %d total trials...", trials))
}

func (r *Runner) println(text string) {
	if r.line == nil {
		return
	}
	if err := r.line.Println(text); err != nil {
		logger.Debug("console write failed", "error", err)
	}
}

func (r *Runner) finishLine() {
	if r.line == nil {
		return
	}
	if err := r.line.Finish(); err != nil {
		logger.Debug("console write failed", "error", err)
	}
}

// runObserver renders progress and feeds outcomes to the batcher. It is only
// ever called from the scheduler's drain loop.
type runObserver struct {
	runID     string
	line      *progress.Line
	batcher   *sink.Batcher
	collector *metrics.Collector

	submit   *progress.Phase
	complete *progress.Phase
	resolved int
	sinkErr  error
}

func (o *runObserver) Submitted(submitted, total int) {
	o.render(o.submit, submitted)
}

func (o *runObserver) SubmissionFinished(submitted, total int) {
	o.render(o.submit, submitted)
	if o.line != nil {
		_ = o.line.Finish()
		_ = o.line.Println("All tasks submitted. Waiting for completion...")
	}
	o.complete = progress.NewPhase("Processing Progress", "trials", submitted)
	if o.resolved > 0 {
		o.render(o.complete, o.resolved)
	}
}

func (o *runObserver) Resolved(out models.Outcome, resolved, submitted int) error {
	o.resolved = resolved
	o.collector.RecordOutcome(out)
	if out.Failed() {
		logger.ForTrial(o.runID, out.Ordinal).Error("Error in trial", "error", out.Err)
	}

	o.batcher.Append(out)
	if _, err := o.batcher.FlushIfFull(); err != nil {
		o.sinkErr = err
		return err
	}

	// the completion line only renders once the submission line is finished
	if o.complete != nil {
		o.render(o.complete, resolved)
	}
	return nil
}

func (o *runObserver) render(p *progress.Phase, done int) {
	s := p.Set(done)
	if o.line == nil || s.Total == 0 {
		return
	}
	if err := o.line.Render(p.Format(s)); err != nil {
		logger.Debug("console write failed", "error", err)
	}
}
