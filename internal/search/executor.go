package search

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/trainer"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// TrialRunner runs a single trial to a result or a failure
type TrialRunner interface {
	Run(ctx context.Context, trial Trial) (*models.TrialResult, error)
}

// Executor runs trials against a trainer. Every error, including a panic in
// the trainer, comes back as a *TrialFailure.
type Executor struct {
	trainer trainer.Trainer
	data    trainer.Dataset
}

// NewExecutor creates an executor bound to one dataset
func NewExecutor(t trainer.Trainer, data trainer.Dataset) *Executor {
	return &Executor{trainer: t, data: data}
}

func (e *Executor) Run(ctx context.Context, trial Trial) (result *models.TrialResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &TrialFailure{Ordinal: trial.Ordinal, Config: trial.Config, Cause: fmt.Errorf("trainer panicked: %v", r)}
		}
	}()

	eval, err := e.trainer.TrainAndEvaluate(ctx, trial.Config, e.data, trial.Seed)
	if err == nil {
		err = eval.Validate()
	}
	if err != nil {
		return nil, &TrialFailure{Ordinal: trial.Ordinal, Config: trial.Config, Cause: err}
	}

	return &models.TrialResult{
		Ordinal:         trial.Ordinal,
		Config:          trial.Config,
		Accuracy:        eval.Accuracy,
		F1:              eval.F1,
		TrainingSeconds: eval.TrainingSeconds,
	}, nil
}
