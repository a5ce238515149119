// Package trainer defines the contract of the external learning backend and
// the adapters the grid search uses to reach it.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

var (
	// ErrDatasetNotFound is returned when the data path does not resolve to a readable file
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrBadEvaluation is returned when a backend reports metrics outside their domain
	ErrBadEvaluation = errors.New("invalid evaluation")
)

// Evaluation is what one training run reports back
type Evaluation struct {
	Accuracy        float64 `json:"accuracy"`
	F1              float64 `json:"f1"`
	TrainingSeconds int64   `json:"training_seconds"`
}

// Validate checks that metrics are within [0,1] and time is non-negative
func (e Evaluation) Validate() error {
	if e.Accuracy < 0 || e.Accuracy > 1 {
		return fmt.Errorf("%w: accuracy %f outside [0,1]", ErrBadEvaluation, e.Accuracy)
	}
	if e.F1 < 0 || e.F1 > 1 {
		return fmt.Errorf("%w: f1 %f outside [0,1]", ErrBadEvaluation, e.F1)
	}
	if e.TrainingSeconds < 0 {
		return fmt.Errorf("%w: negative training time %d", ErrBadEvaluation, e.TrainingSeconds)
	}
	return nil
}

// Dataset is the handle passed to every trial
type Dataset struct {
	Path      string
	NumInputs int
}

// Trainer trains one network for a configuration and evaluates it.
// Implementations must be safe for concurrent use.
type Trainer interface {
	TrainAndEvaluate(ctx context.Context, cfg models.HyperparameterConfig, data Dataset, seed int64) (Evaluation, error)
}

// TrainerFunc adapts a function to the Trainer interface
type TrainerFunc func(ctx context.Context, cfg models.HyperparameterConfig, data Dataset, seed int64) (Evaluation, error)

func (f TrainerFunc) TrainAndEvaluate(ctx context.Context, cfg models.HyperparameterConfig, data Dataset, seed int64) (Evaluation, error) {
	return f(ctx, cfg, data, seed)
}

// ResolveDataset resolves a data path against the working directory and
// checks it names a readable regular file.
func ResolveDataset(path string, numInputs int) (Dataset, error) {
	if path == "" {
		return Dataset{}, fmt.Errorf("%w: empty path", ErrDatasetNotFound)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, abs)
	}
	if !info.Mode().IsRegular() {
		return Dataset{}, fmt.Errorf("%w: %s is not a regular file", ErrDatasetNotFound, abs)
	}
	f, err := os.Open(abs)
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: %s: %v", ErrDatasetNotFound, abs, err)
	}
	f.Close()
	return Dataset{Path: abs, NumInputs: numInputs}, nil
}
