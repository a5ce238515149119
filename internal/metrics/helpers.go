package metrics

import "github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"

// Metric names
const (
	MetricAccuracy        = "accuracy"
	MetricF1              = "f1_score"
	MetricTrainingSeconds = "training_seconds"
)

// TrialLabels creates the labels a trial's metrics are grouped by
func TrialLabels(cfg models.HyperparameterConfig) map[string]string {
	return map[string]string{
		"activation":  string(cfg.Activation),
		"weight_init": string(cfg.WeightInit),
	}
}
