// Package progress computes throughput and ETA for the phases of a grid
// search and renders them on a single, continuously overwritten console line.
package progress

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/utils"
)

// Snapshot is the progress of a phase at one instant. ETAMinutes and
// ETAHours are NaN while the rate is zero.
type Snapshot struct {
	Done       int
	Total      int
	Elapsed    time.Duration
	Percent    float64
	Rate       float64 // items per minute
	ETAMinutes float64
	ETAHours   float64
}

// Compute derives a snapshot from raw counters
func Compute(done, total int, elapsed time.Duration) Snapshot {
	s := Snapshot{
		Done:       done,
		Total:      total,
		Elapsed:    elapsed,
		ETAMinutes: math.NaN(),
		ETAHours:   math.NaN(),
	}
	if total > 0 {
		s.Percent = 100 * float64(done) / float64(total)
	} else {
		// nothing to do is complete
		s.Percent = 100
	}

	minutes := utils.Minutes(elapsed)
	if done > 0 && minutes > 0 {
		s.Rate = float64(done) / minutes
	}
	if s.Rate > 0 {
		s.ETAMinutes = float64(total-done) / s.Rate
		s.ETAHours = s.ETAMinutes / 60.0
	}
	return s
}

// formatETA renders an estimate with one decimal, or N/A when undefined
func formatETA(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", v)
}

// Phase tracks one progress phase with its own start time
type Phase struct {
	mu    sync.Mutex
	label string
	unit  string
	total int
	done  int
	start time.Time
	now   func() time.Time
}

// NewPhase starts a phase now
func NewPhase(label, unit string, total int) *Phase {
	return newPhaseAt(label, unit, total, time.Now)
}

func newPhaseAt(label, unit string, total int, now func() time.Time) *Phase {
	return &Phase{label: label, unit: unit, total: total, start: now(), now: now}
}

// Set records the number of items done. Progress never moves backwards and
// never exceeds the total.
func (p *Phase) Set(done int) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if done > p.total {
		done = p.total
	}
	if done > p.done {
		p.done = done
	}
	return Compute(p.done, p.total, p.now().Sub(p.start))
}

// Snapshot returns the current progress
func (p *Phase) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Compute(p.done, p.total, p.now().Sub(p.start))
}

// Format renders a snapshot as the status line of this phase
func (p *Phase) Format(s Snapshot) string {
	return fmt.Sprintf("%s: %d/%d (%.2f%%) | Speed: %.2f %s/min | Remaining: %s min (%s hrs)",
		p.label, s.Done, s.Total, s.Percent, s.Rate, p.unit,
		formatETA(s.ETAMinutes), formatETA(s.ETAHours))
}
