package models

import (
	"fmt"
	"strings"
)

// Activation is the hidden-layer activation function of a network
type Activation string

const (
	ActivationReLU      Activation = "RELU"
	ActivationTanh      Activation = "TANH"
	ActivationSwish     Activation = "SWISH"
	ActivationLeakyReLU Activation = "LEAKYRELU"
	ActivationSigmoid   Activation = "SIGMOID"
)

var validActivations = map[Activation]bool{
	ActivationReLU:      true,
	ActivationTanh:      true,
	ActivationSwish:     true,
	ActivationLeakyReLU: true,
	ActivationSigmoid:   true,
}

// ParseActivation parses an activation name, case-insensitively
func ParseActivation(s string) (Activation, error) {
	a := Activation(strings.ToUpper(strings.TrimSpace(s)))
	if !validActivations[a] {
		return "", fmt.Errorf("unknown activation: %q", s)
	}
	return a, nil
}

// UnmarshalText lets activations be read from YAML and flags
func (a *Activation) UnmarshalText(text []byte) error {
	parsed, err := ParseActivation(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// WeightInit is the weight-initialization scheme of a network
type WeightInit string

const (
	WeightInitXavier  WeightInit = "XAVIER"
	WeightInitReLU    WeightInit = "RELU"
	WeightInitNormal  WeightInit = "NORMAL"
	WeightInitUniform WeightInit = "UNIFORM"
)

var validWeightInits = map[WeightInit]bool{
	WeightInitXavier:  true,
	WeightInitReLU:    true,
	WeightInitNormal:  true,
	WeightInitUniform: true,
}

// ParseWeightInit parses a weight-init name. "HE" is accepted as an alias of RELU.
func ParseWeightInit(s string) (WeightInit, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "HE" {
		name = string(WeightInitReLU)
	}
	w := WeightInit(name)
	if !validWeightInits[w] {
		return "", fmt.Errorf("unknown weight init: %q", s)
	}
	return w, nil
}

// UnmarshalText lets weight inits be read from YAML and flags
func (w *WeightInit) UnmarshalText(text []byte) error {
	parsed, err := ParseWeightInit(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// HyperparameterConfig is one point of the search space. It is a value type
// and is never mutated once generated.
type HyperparameterConfig struct {
	LearningRate  float64    `json:"learning_rate" yaml:"learning_rate"`
	BatchSize     int        `json:"batch_size" yaml:"batch_size"`
	Epochs        int        `json:"epochs" yaml:"epochs"`
	Layer1Neurons int        `json:"l1_neurons" yaml:"l1_neurons"`
	Layer2Neurons int        `json:"l2_neurons" yaml:"l2_neurons"`
	Layer3Neurons int        `json:"l3_neurons" yaml:"l3_neurons"`
	Activation    Activation `json:"activation" yaml:"activation"`
	WeightInit    WeightInit `json:"weight_init" yaml:"weight_init"`
}

// Tapered reports whether hidden-layer widths are non-increasing
func (c HyperparameterConfig) Tapered() bool {
	return c.Layer1Neurons >= c.Layer2Neurons && c.Layer2Neurons >= c.Layer3Neurons
}

// Validate checks the field domains of a configuration
func (c HyperparameterConfig) Validate() error {
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %f", c.LearningRate)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.Layer1Neurons <= 0 || c.Layer2Neurons <= 0 || c.Layer3Neurons <= 0 {
		return fmt.Errorf("layer widths must be positive, got %d/%d/%d", c.Layer1Neurons, c.Layer2Neurons, c.Layer3Neurons)
	}
	if !c.Tapered() {
		return fmt.Errorf("layer widths must be non-increasing, got %d/%d/%d", c.Layer1Neurons, c.Layer2Neurons, c.Layer3Neurons)
	}
	if !validActivations[c.Activation] {
		return fmt.Errorf("unknown activation: %q", c.Activation)
	}
	if !validWeightInits[c.WeightInit] {
		return fmt.Errorf("unknown weight init: %q", c.WeightInit)
	}
	return nil
}

func (c HyperparameterConfig) String() string {
	return fmt.Sprintf("lr=%g bs=%d epochs=%d layers=%d/%d/%d act=%s init=%s",
		c.LearningRate, c.BatchSize, c.Epochs,
		c.Layer1Neurons, c.Layer2Neurons, c.Layer3Neurons,
		c.Activation, c.WeightInit)
}

// TrialState represents the lifecycle state of a trial
type TrialState string

const (
	TrialPending   TrialState = "pending"
	TrialAdmitted  TrialState = "admitted"
	TrialRunning   TrialState = "running"
	TrialCompleted TrialState = "completed"
	TrialFailed    TrialState = "failed"
)

// Terminal reports whether no further transition is possible
func (s TrialState) Terminal() bool {
	return s == TrialCompleted || s == TrialFailed
}

// TrialResult holds the evaluation metrics of a successfully trained trial
type TrialResult struct {
	Ordinal         int                  `json:"trial"`
	Config          HyperparameterConfig `json:"config"`
	Accuracy        float64              `json:"accuracy"`
	F1              float64              `json:"f1"`
	TrainingSeconds int64                `json:"training_seconds"`
}

// Outcome is the terminal result of one trial, handed from a worker to the
// draining loop. Exactly one of Result and Err is set.
type Outcome struct {
	Ordinal int
	Config  HyperparameterConfig
	Result  *TrialResult
	Err     error
}

// Failed reports whether the trial ended in failure
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// State returns the terminal state of the outcome
func (o Outcome) State() TrialState {
	if o.Failed() {
		return TrialFailed
	}
	return TrialCompleted
}
