package trainer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/utils"
)

// SyntheticBackend stands in for a real learning library. Scores are a
// deterministic function of configuration and seed, which makes it useful for
// dry runs of a grid and for exercising the scheduler.
type SyntheticBackend struct {
	// EpochDelay is slept on every Fit call
	EpochDelay time.Duration
}

// NewSynthetic returns a Stepwise trainer over the synthetic backend
func NewSynthetic(epochDelay time.Duration) *Stepwise {
	b := &SyntheticBackend{EpochDelay: epochDelay}
	return NewStepwise(b, b)
}

type syntheticCursor struct {
	resets int
}

func (c *syntheticCursor) Reset() error {
	c.resets++
	return nil
}

// Load checks the path and returns an in-memory cursor
func (b *SyntheticBackend) Load(path string, batchSize int) (Cursor, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if _, err := ResolveDataset(path, 1); err != nil {
		return nil, err
	}
	return &syntheticCursor{}, nil
}

// Build returns a synthetic model seeded for the trial
func (b *SyntheticBackend) Build(cfg models.HyperparameterConfig, numInputs int, seed int64) (Model, error) {
	if numInputs <= 0 {
		return nil, fmt.Errorf("num inputs must be positive, got %d", numInputs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &syntheticModel{cfg: cfg, rng: utils.NewRandSource(seed), delay: b.EpochDelay}, nil
}

type syntheticModel struct {
	cfg    models.HyperparameterConfig
	rng    *utils.RandSource
	delay  time.Duration
	epochs int
}

func (m *syntheticModel) Fit(ctx context.Context, data Cursor) error {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	m.epochs++
	return nil
}

func (m *syntheticModel) Evaluate(ctx context.Context, data Cursor) (float64, float64, error) {
	// saturating curve in epochs, penalized for extreme learning rates
	progress := 1 - math.Exp(-float64(m.epochs)/50.0)
	lrPenalty := math.Abs(math.Log10(m.cfg.LearningRate)+3.3) * 0.03
	capacity := math.Log2(float64(m.cfg.Layer1Neurons+m.cfg.Layer2Neurons+m.cfg.Layer3Neurons)) * 0.01

	accuracy := 0.55 + 0.3*progress + capacity - lrPenalty + m.rng.NormFloat64(0, 0.01)
	accuracy = utils.ClampFloat64(accuracy, 0, 1)
	f1 := utils.ClampFloat64(accuracy-m.rng.UniformFloat64(0.01, 0.04), 0, 1)
	return accuracy, f1, nil
}
