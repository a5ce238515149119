// Package sink buffers completed trials and persists them in batches.
package sink

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/config"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

var (
	// ErrDestinationExists is returned in fail mode when the destination is already present
	ErrDestinationExists = errors.New("destination already exists")
	// ErrResumeMismatch is returned when a persisted trial does not match the current grid
	ErrResumeMismatch = errors.New("persisted results do not match the search space")
)

// Columns is the fixed column order of persisted results
var Columns = []string{
	"Trial", "LearningRate", "BatchSize", "Epochs",
	"L1Neurons", "L2Neurons", "L3Neurons",
	"Activation", "WeightInit",
	"Accuracy", "F1Score", "TrainingTime",
}

// configColumns is the number of leading columns that identify a trial
const configColumns = 9

// Writer is a durable append-only destination
type Writer interface {
	// WriteResults appends rows and makes them durable before returning
	WriteResults(results []models.TrialResult) error
	// Dest names the destination for operator messages
	Dest() string
	Close() error
}

// Persisted maps trial ordinals already present in a destination to their
// identifying columns.
type Persisted map[int][]string

// Verify checks that every persisted trial matches the configuration with the
// same ordinal in configs (ordinal i is configs[i-1]).
func (p Persisted) Verify(configs []models.HyperparameterConfig) error {
	for ordinal, stored := range p {
		if ordinal < 1 || ordinal > len(configs) {
			return fmt.Errorf("%w: trial %d is outside the %d generated configurations", ErrResumeMismatch, ordinal, len(configs))
		}
		want := FormatRow(models.TrialResult{Ordinal: ordinal, Config: configs[ordinal-1]})[:configColumns]
		for i := range want {
			if stored[i] != want[i] {
				return fmt.Errorf("%w: trial %d column %s is %q, expected %q", ErrResumeMismatch, ordinal, Columns[i], stored[i], want[i])
			}
		}
	}
	return nil
}

// FormatRow renders a result with fixed precision in column order
func FormatRow(r models.TrialResult) []string {
	c := r.Config
	return []string{
		strconv.Itoa(r.Ordinal),
		strconv.FormatFloat(c.LearningRate, 'f', 4, 64),
		strconv.Itoa(c.BatchSize),
		strconv.Itoa(c.Epochs),
		strconv.Itoa(c.Layer1Neurons),
		strconv.Itoa(c.Layer2Neurons),
		strconv.Itoa(c.Layer3Neurons),
		string(c.Activation),
		string(c.WeightInit),
		strconv.FormatFloat(r.Accuracy, 'f', 4, 64),
		strconv.FormatFloat(r.F1, 'f', 4, 64),
		strconv.FormatInt(r.TrainingSeconds, 10),
	}
}

// Open opens the destination described by out and returns what it already holds
func Open(out config.Output) (Writer, Persisted, error) {
	switch out.Format {
	case config.FormatCSV:
		return OpenCSV(out.Path, out.Mode)
	case config.FormatSQLite:
		return OpenSQLite(out.Path, out.Mode)
	default:
		return nil, nil, fmt.Errorf("unsupported output format: %s", out.Format)
	}
}
