package search

import (
	"errors"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/config"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// ErrEmptySpace is returned when the search space yields no valid configuration
var ErrEmptySpace = errors.New("no hyperparameter combinations generated")

// Generate enumerates the Cartesian product of the space, learning rate
// outermost and weight init innermost, keeping only configurations whose
// hidden layers do not widen. The order is deterministic and defines each
// configuration's trial ordinal.
func Generate(space config.Space) []models.HyperparameterConfig {
	configs := make([]models.HyperparameterConfig, 0)

	for _, lr := range space.LearningRates {
		for _, bs := range space.BatchSizes {
			for _, epochs := range space.Epochs {
				for _, l1 := range space.Layer1Neurons {
					for _, l2 := range space.Layer2Neurons {
						for _, l3 := range space.Layer3Neurons {
							if l1 < l2 || l2 < l3 {
								continue
							}
							for _, act := range space.Activations {
								for _, wi := range space.WeightInits {
									configs = append(configs, models.HyperparameterConfig{
										LearningRate:  lr,
										BatchSize:     bs,
										Epochs:        epochs,
										Layer1Neurons: l1,
										Layer2Neurons: l2,
										Layer3Neurons: l3,
										Activation:    act,
										WeightInit:    wi,
									})
								}
							}
						}
					}
				}
			}
		}
	}

	return configs
}

// GenerateNonEmpty is Generate that fails on an empty result
func GenerateNonEmpty(space config.Space) ([]models.HyperparameterConfig, error) {
	configs := Generate(space)
	if len(configs) == 0 {
		return nil, ErrEmptySpace
	}
	return configs, nil
}
