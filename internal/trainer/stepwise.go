package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/utils"
)

// Cursor is a resettable iterator over labeled feature rows
type Cursor interface {
	Reset() error
}

// Loader opens a cursor over a data file with the given batch size
type Loader interface {
	Load(path string, batchSize int) (Cursor, error)
}

// Model is one initialized network
type Model interface {
	Fit(ctx context.Context, data Cursor) error
	Evaluate(ctx context.Context, data Cursor) (accuracy, f1 float64, err error)
}

// Builder constructs a network for a configuration
type Builder interface {
	Build(cfg models.HyperparameterConfig, numInputs int, seed int64) (Model, error)
}

// Stepwise drives a Builder and Loader through the fixed training sequence:
// build, fit once per epoch resetting the cursor after each pass, reset once
// more, then evaluate. Only the fit loop is timed.
type Stepwise struct {
	Builder Builder
	Loader  Loader
	now     func() time.Time
}

// NewStepwise creates a Stepwise trainer
func NewStepwise(builder Builder, loader Loader) *Stepwise {
	return &Stepwise{Builder: builder, Loader: loader, now: time.Now}
}

func (s *Stepwise) TrainAndEvaluate(ctx context.Context, cfg models.HyperparameterConfig, data Dataset, seed int64) (Evaluation, error) {
	cursor, err := s.Loader.Load(data.Path, cfg.BatchSize)
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to load data: %w", err)
	}
	model, err := s.Builder.Build(cfg, data.NumInputs, seed)
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to build model: %w", err)
	}

	start := s.now()
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return Evaluation{}, fmt.Errorf("training interrupted at epoch %d: %w", epoch, err)
		}
		if err := model.Fit(ctx, cursor); err != nil {
			return Evaluation{}, fmt.Errorf("fit failed at epoch %d: %w", epoch+1, err)
		}
		if err := cursor.Reset(); err != nil {
			return Evaluation{}, fmt.Errorf("failed to reset data after epoch %d: %w", epoch+1, err)
		}
	}
	elapsed := s.now().Sub(start)

	if err := cursor.Reset(); err != nil {
		return Evaluation{}, fmt.Errorf("failed to reset data before evaluation: %w", err)
	}
	accuracy, f1, err := model.Evaluate(ctx, cursor)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluation failed: %w", err)
	}

	eval := Evaluation{
		Accuracy:        accuracy,
		F1:              f1,
		TrainingSeconds: utils.FloorSeconds(elapsed),
	}
	return eval, eval.Validate()
}
