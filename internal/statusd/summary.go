package statusd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/search"
)

// SummaryPath returns where the summary of a destination is written
func SummaryPath(dest string) string {
	ext := filepath.Ext(dest)
	return strings.TrimSuffix(dest, ext) + ".summary.json"
}

// BuildSummary converts a run report into a JSON-compatible document
func BuildSummary(rep *search.Report) (*structpb.Struct, error) {
	if rep == nil {
		return nil, fmt.Errorf("nil report")
	}
	doc := map[string]any{
		"run_id":      rep.RunID,
		"destination": rep.Dest,
		"generated":   rep.Generated,
		"resumed":     rep.Resumed,
		"schedule": map[string]any{
			"total":        rep.Schedule.Total,
			"submitted":    rep.Schedule.Submitted,
			"completed":    rep.Schedule.Completed,
			"failed":       rep.Schedule.Failed,
			"peak_running": rep.Schedule.PeakRunning,
			"duration_ms":  rep.Schedule.Duration.Milliseconds(),
		},
		"sink": map[string]any{
			"completed": rep.Sink.Completed,
			"failed":    rep.Sink.Failed,
			"persisted": rep.Sink.Persisted,
			"buffered":  rep.Sink.Buffered,
		},
	}

	if m := rep.Metrics; m != nil {
		aggs := make(map[string]any, len(m.Aggregations))
		for name, agg := range m.Aggregations {
			aggs[name] = map[string]any{
				"count":  agg.Count,
				"mean":   agg.Mean,
				"min":    agg.Min,
				"max":    agg.Max,
				"stddev": agg.StdDev,
			}
		}
		doc["metrics"] = aggs
		if b := m.Best; b != nil {
			doc["best"] = map[string]any{
				"trial":            b.Ordinal,
				"accuracy":         b.Accuracy,
				"f1":               b.F1,
				"training_seconds": b.TrainingSeconds,
				"learning_rate":    b.Config.LearningRate,
				"batch_size":       b.Config.BatchSize,
				"epochs":           b.Config.Epochs,
				"l1_neurons":       b.Config.Layer1Neurons,
				"l2_neurons":       b.Config.Layer2Neurons,
				"l3_neurons":       b.Config.Layer3Neurons,
				"activation":       string(b.Config.Activation),
				"weight_init":      string(b.Config.WeightInit),
			}
		}
	}

	return structpb.NewStruct(doc)
}

// WriteSummary writes the report as indented JSON to path
func WriteSummary(path string, rep *search.Report) error {
	doc, err := BuildSummary(rep)
	if err != nil {
		return fmt.Errorf("failed to build summary: %w", err)
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write summary to %s: %w", path, err)
	}
	return nil
}
