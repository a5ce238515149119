package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridsearch.yaml")
	content := `
log_level: debug
data_path: data/train.csv
base_seed: 1000
max_concurrency: 4
batch_write_size: 50
shutdown_grace: 2m
output:
  path: out.db
  format: sqlite
  mode: resume
trainer:
  kind: command
  command: ./train.sh
  args: [--gpu]
  timeout: 1h
  num_inputs: 5
space:
  learning_rates: [0.001]
  batch_sizes: [32, 64]
  epochs: [10]
  l1_neurons: [128]
  l2_neurons: [64]
  l3_neurons: [32]
  activations: [relu, tanh]
  weight_inits: [xavier]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log_level 'debug', got '%s'", cfg.LogLevel)
	}
	if cfg.BaseSeed != 1000 {
		t.Errorf("Expected base seed 1000, got %d", cfg.BaseSeed)
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("Expected max concurrency 4, got %d", cfg.MaxConcurrency)
	}
	if cfg.Output.Format != FormatSQLite || cfg.Output.Mode != ModeResume {
		t.Errorf("Unexpected output %+v", cfg.Output)
	}
	grace, err := cfg.GetShutdownGrace()
	if err != nil || grace != 2*time.Minute {
		t.Errorf("Expected 2m grace, got %v (%v)", grace, err)
	}
	timeout, err := cfg.Trainer.GetTimeout()
	if err != nil || timeout != time.Hour {
		t.Errorf("Expected 1h timeout, got %v (%v)", timeout, err)
	}

	space := cfg.ResolvedSpace()
	if len(space.BatchSizes) != 2 {
		t.Errorf("Expected 2 batch sizes, got %d", len(space.BatchSizes))
	}
	if space.Activations[1] != models.ActivationTanh {
		t.Errorf("Expected TANH, got %s", space.Activations[1])
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfigYAMLString("data_path: train.csv\n")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.BaseSeed != DefaultBaseSeed {
		t.Errorf("Expected default seed %d, got %d", DefaultBaseSeed, cfg.BaseSeed)
	}
	if cfg.BatchWriteSize != DefaultBatchWriteSize {
		t.Errorf("Expected default batch write size %d, got %d", DefaultBatchWriteSize, cfg.BatchWriteSize)
	}
	if cfg.Output.Path != DefaultOutputPath || cfg.Output.Mode != ModeFail {
		t.Errorf("Unexpected default output %+v", cfg.Output)
	}
	if cfg.Trainer.Kind != TrainerSynthetic {
		t.Errorf("Expected synthetic trainer, got %s", cfg.Trainer.Kind)
	}
	if len(cfg.ResolvedSpace().BatchSizes) != 3 {
		t.Errorf("Expected production space")
	}
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad log level", "log_level: loud\n", "log_level"},
		{"negative concurrency", "max_concurrency: -1\n", "max_concurrency"},
		{"zero batch", "batch_write_size: 0\n", "batch_write_size"},
		{"bad grace", "shutdown_grace: soon\n", "shutdown_grace"},
		{"bad format", "output: {path: x, format: parquet, mode: fail}\n", "format"},
		{"bad mode", "output: {path: x, format: csv, mode: append}\n", "mode"},
		{"command without binary", "trainer: {kind: command, num_inputs: 5}\n", "command"},
		{"bad trainer", "trainer: {kind: magic, num_inputs: 5}\n", "trainer kind"},
		{"bad preset", "preset: huge\n", "preset"},
		{"empty dimension", "space: {learning_rates: [0.1], batch_sizes: [], epochs: [1], l1_neurons: [1], l2_neurons: [1], l3_neurons: [1], activations: [relu], weight_inits: [xavier]}\n", "batch_sizes"},
		{"bad activation", "space: {activations: [gelu]}\n", "activation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfigYAMLString(tt.yaml)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestResolvedSpacePresets(t *testing.T) {
	cfg := Default()
	cfg.Preset = PresetTesting
	if got := len(cfg.ResolvedSpace().Layer1Neurons); got != 4 {
		t.Errorf("Expected testing preset with 4 L1 widths, got %d", got)
	}
}

func TestMarshalConfigYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.DataPath = "train.csv"
	out, err := MarshalConfigYAML(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	back, err := ParseConfigYAMLString(out)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if back.DataPath != "train.csv" || back.BaseSeed != cfg.BaseSeed {
		t.Errorf("Round trip mismatch: %+v", back)
	}
}
