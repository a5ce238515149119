package config

import "github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"

// Default run settings
const (
	DefaultBaseSeed       int64 = 527
	DefaultBatchWriteSize       = 200
	DefaultOutputPath           = "grid_search_results.csv"
	DefaultShutdownGrace        = "30m"
	DefaultNumInputs            = 5
)

// Default returns a configuration with every field set to its default
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		BaseSeed:       DefaultBaseSeed,
		BatchWriteSize: DefaultBatchWriteSize,
		ShutdownGrace:  DefaultShutdownGrace,
		Output: Output{
			Path:   DefaultOutputPath,
			Format: FormatCSV,
			Mode:   ModeFail,
		},
		Trainer: TrainerConfig{
			Kind:  TrainerSynthetic,
			NumIn: DefaultNumInputs,
		},
		Preset: PresetProduction,
	}
}

// ProductionSpace is the search space used for full runs
func ProductionSpace() Space {
	return Space{
		LearningRates: []float64{0.0005},
		BatchSizes:    []int{32, 64, 128},
		Epochs:        []int{150},
		Layer1Neurons: []int{256},
		Layer2Neurons: []int{128},
		Layer3Neurons: []int{64},
		Activations:   []models.Activation{models.ActivationReLU, models.ActivationTanh},
		WeightInits:   []models.WeightInit{models.WeightInitXavier},
	}
}

// TestingSpace is the wider exploratory space
func TestingSpace() Space {
	return Space{
		LearningRates: []float64{0.001, 0.0005, 0.0001},
		BatchSizes:    []int{32, 64, 128},
		Epochs:        []int{50, 100, 150},
		Layer1Neurons: []int{32, 64, 128, 256},
		Layer2Neurons: []int{16, 32, 64, 128},
		Layer3Neurons: []int{8, 16, 32, 64},
		Activations: []models.Activation{
			models.ActivationReLU,
			models.ActivationSwish,
			models.ActivationLeakyReLU,
			models.ActivationTanh,
		},
		WeightInits: []models.WeightInit{models.WeightInitXavier},
	}
}
