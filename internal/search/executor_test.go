package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/trainer"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

func TestExecutorRecoversTrainerPanic(t *testing.T) {
	tr := makeTrials(1)[0]
	exec := NewExecutor(trainer.TrainerFunc(func(ctx context.Context, cfg models.HyperparameterConfig, data trainer.Dataset, seed int64) (trainer.Evaluation, error) {
		panic("index out of range")
	}), testData)

	result, err := exec.Run(context.Background(), tr)
	assert.Nil(t, result)

	var failure *TrialFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, tr.Ordinal, failure.Ordinal)
	assert.Equal(t, tr.Config, failure.Config)
	assert.Contains(t, failure.Cause.Error(), "trainer panicked: index out of range")
}

func TestExecutorRejectsInvalidEvaluation(t *testing.T) {
	tr := makeTrials(1)[0]
	exec := NewExecutor(trainer.TrainerFunc(func(ctx context.Context, cfg models.HyperparameterConfig, data trainer.Dataset, seed int64) (trainer.Evaluation, error) {
		return trainer.Evaluation{Accuracy: 1.5, F1: 0.5}, nil
	}), testData)

	_, err := exec.Run(context.Background(), tr)
	assert.True(t, errors.Is(err, trainer.ErrBadEvaluation))
}

func TestExecutorPassesSeedAndDataset(t *testing.T) {
	tr := makeTrials(3)[2]
	var gotSeed int64
	var gotData trainer.Dataset
	exec := NewExecutor(trainer.TrainerFunc(func(ctx context.Context, cfg models.HyperparameterConfig, data trainer.Dataset, seed int64) (trainer.Evaluation, error) {
		gotSeed, gotData = seed, data
		return trainer.Evaluation{Accuracy: 0.7, F1: 0.6, TrainingSeconds: 9}, nil
	}), testData)

	result, err := exec.Run(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, tr.Seed, gotSeed)
	assert.Equal(t, testData, gotData)
	assert.Equal(t, models.TrialResult{Ordinal: 3, Config: tr.Config, Accuracy: 0.7, F1: 0.6, TrainingSeconds: 9}, *result)
}
