package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate performs validation on the configuration
func Validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", cfg.MaxConcurrency)
	}
	if cfg.BatchWriteSize <= 0 {
		return fmt.Errorf("batch_write_size must be positive, got %d", cfg.BatchWriteSize)
	}
	if _, err := cfg.GetShutdownGrace(); err != nil {
		return fmt.Errorf("invalid shutdown_grace %s: %w", cfg.ShutdownGrace, err)
	}

	if err := validateOutput(&cfg.Output); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}
	if err := validateTrainer(&cfg.Trainer); err != nil {
		return fmt.Errorf("trainer validation failed: %w", err)
	}

	if cfg.Preset != "" && cfg.Preset != PresetProduction && cfg.Preset != PresetTesting {
		return fmt.Errorf("invalid preset: %s (must be production or testing)", cfg.Preset)
	}
	if cfg.Space != nil {
		if err := ValidateSpace(cfg.Space); err != nil {
			return fmt.Errorf("space validation failed: %w", err)
		}
	}

	return nil
}

// validateOutput validates the result destination
func validateOutput(o *Output) error {
	if o.Path == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if o.Format != FormatCSV && o.Format != FormatSQLite {
		return fmt.Errorf("invalid format: %s (must be csv or sqlite)", o.Format)
	}
	validModes := map[string]bool{
		ModeFail:      true,
		ModeOverwrite: true,
		ModeResume:    true,
	}
	if !validModes[o.Mode] {
		return fmt.Errorf("invalid mode: %s (must be fail, overwrite, or resume)", o.Mode)
	}
	return nil
}

// validateTrainer validates the trainer selection
func validateTrainer(t *TrainerConfig) error {
	switch t.Kind {
	case TrainerSynthetic:
	case TrainerCommand:
		if t.Command == "" {
			return fmt.Errorf("command trainer requires a command")
		}
	default:
		return fmt.Errorf("invalid trainer kind: %s (must be synthetic or command)", t.Kind)
	}
	if _, err := t.GetTimeout(); err != nil {
		return fmt.Errorf("invalid timeout %s: %w", t.Timeout, err)
	}
	if t.NumIn <= 0 {
		return fmt.Errorf("num_inputs must be positive, got %d", t.NumIn)
	}
	return nil
}

// ValidateSpace checks that every dimension holds at least one legal value
func ValidateSpace(s *Space) error {
	if len(s.LearningRates) == 0 {
		return fmt.Errorf("learning_rates cannot be empty")
	}
	for _, lr := range s.LearningRates {
		if lr <= 0 {
			return fmt.Errorf("learning rate must be positive, got %f", lr)
		}
	}
	dims := []struct {
		name   string
		values []int
	}{
		{"batch_sizes", s.BatchSizes},
		{"epochs", s.Epochs},
		{"l1_neurons", s.Layer1Neurons},
		{"l2_neurons", s.Layer2Neurons},
		{"l3_neurons", s.Layer3Neurons},
	}
	for _, d := range dims {
		if len(d.values) == 0 {
			return fmt.Errorf("%s cannot be empty", d.name)
		}
		for _, v := range d.values {
			if v <= 0 {
				return fmt.Errorf("%s values must be positive, got %d", d.name, v)
			}
		}
	}
	if len(s.Activations) == 0 {
		return fmt.Errorf("activations cannot be empty")
	}
	if len(s.WeightInits) == 0 {
		return fmt.Errorf("weight_inits cannot be empty")
	}
	return nil
}
