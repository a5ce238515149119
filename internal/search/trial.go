package search

import (
	"fmt"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// Trial is one scheduled evaluation of a configuration
type Trial struct {
	Ordinal int
	Config  models.HyperparameterConfig
	Seed    int64
}

// NewTrials assigns ordinals in generation order and derives per-trial seeds
// as baseSeed + ordinal. Ordinals for which skip returns true are left out but
// keep their numbering.
func NewTrials(configs []models.HyperparameterConfig, baseSeed int64, skip func(ordinal int) bool) []Trial {
	trials := make([]Trial, 0, len(configs))
	for i, cfg := range configs {
		ordinal := i + 1
		if skip != nil && skip(ordinal) {
			continue
		}
		trials = append(trials, Trial{
			Ordinal: ordinal,
			Config:  cfg,
			Seed:    baseSeed + int64(ordinal),
		})
	}
	return trials
}

// TrialFailure records why a trial did not produce a result
type TrialFailure struct {
	Ordinal int
	Config  models.HyperparameterConfig
	Cause   error
}

func (f *TrialFailure) Error() string {
	return fmt.Sprintf("trial %d failed: %v", f.Ordinal, f.Cause)
}

func (f *TrialFailure) Unwrap() error {
	return f.Cause
}
