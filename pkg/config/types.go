package config

import (
	"time"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// Config represents a grid search run configuration
type Config struct {
	LogLevel       string        `yaml:"log_level"`
	DataPath       string        `yaml:"data_path"`
	BaseSeed       int64         `yaml:"base_seed"`
	MaxConcurrency int           `yaml:"max_concurrency"` // 0 means one trial per processing unit
	BatchWriteSize int           `yaml:"batch_write_size"`
	ShutdownGrace  string        `yaml:"shutdown_grace"` // e.g., "30m"
	Output         Output        `yaml:"output"`
	Trainer        TrainerConfig `yaml:"trainer"`
	Preset         string        `yaml:"preset,omitempty"` // production or testing
	Space          *Space        `yaml:"space,omitempty"`
	StatusAddr     string        `yaml:"status_addr,omitempty"`
}

// Output describes the result destination
type Output struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // csv or sqlite
	Mode   string `yaml:"mode"`   // fail, overwrite or resume
}

// TrainerConfig selects and configures the external trainer
type TrainerConfig struct {
	Kind    string   `yaml:"kind"` // synthetic or command
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	Timeout string   `yaml:"timeout,omitempty"` // per-trial limit, empty for none
	NumIn   int      `yaml:"num_inputs"`
}

// Space lists the candidate values of every hyperparameter dimension
type Space struct {
	LearningRates []float64           `yaml:"learning_rates"`
	BatchSizes    []int               `yaml:"batch_sizes"`
	Epochs        []int               `yaml:"epochs"`
	Layer1Neurons []int               `yaml:"l1_neurons"`
	Layer2Neurons []int               `yaml:"l2_neurons"`
	Layer3Neurons []int               `yaml:"l3_neurons"`
	Activations   []models.Activation `yaml:"activations"`
	WeightInits   []models.WeightInit `yaml:"weight_inits"`
}

// Output formats
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// Destination modes
const (
	ModeFail      = "fail"
	ModeOverwrite = "overwrite"
	ModeResume    = "resume"
)

// Trainer kinds
const (
	TrainerSynthetic = "synthetic"
	TrainerCommand   = "command"
)

// Space presets
const (
	PresetProduction = "production"
	PresetTesting    = "testing"
)

// GetShutdownGrace parses the shutdown grace period
func (c *Config) GetShutdownGrace() (time.Duration, error) {
	if c.ShutdownGrace == "" {
		return 0, nil
	}
	return time.ParseDuration(c.ShutdownGrace)
}

// GetTimeout parses the per-trial timeout
func (t *TrainerConfig) GetTimeout() (time.Duration, error) {
	if t.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(t.Timeout)
}

// ResolvedSpace returns the explicit space if set, otherwise the preset
func (c *Config) ResolvedSpace() Space {
	if c.Space != nil {
		return *c.Space
	}
	if c.Preset == PresetTesting {
		return TestingSpace()
	}
	return ProductionSpace()
}
