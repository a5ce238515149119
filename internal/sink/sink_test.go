package sink

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/config"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

func sampleConfig(batch int, act models.Activation) models.HyperparameterConfig {
	return models.HyperparameterConfig{
		LearningRate:  0.0005,
		BatchSize:     batch,
		Epochs:        150,
		Layer1Neurons: 256,
		Layer2Neurons: 128,
		Layer3Neurons: 64,
		Activation:    act,
		WeightInit:    models.WeightInitXavier,
	}
}

func completed(ordinal int, cfg models.HyperparameterConfig) models.Outcome {
	return models.Outcome{
		Ordinal: ordinal,
		Config:  cfg,
		Result: &models.TrialResult{
			Ordinal:         ordinal,
			Config:          cfg,
			Accuracy:        0.91234,
			F1:              0.5,
			TrainingSeconds: 42,
		},
	}
}

type memWriter struct {
	batches [][]models.TrialResult
	err     error
}

func (m *memWriter) WriteResults(results []models.TrialResult) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]models.TrialResult(nil), results...))
	return nil
}

func (m *memWriter) Dest() string { return "memory" }
func (m *memWriter) Close() error { return nil }

func TestFormatRow(t *testing.T) {
	row := FormatRow(models.TrialResult{
		Ordinal:         3,
		Config:          sampleConfig(64, models.ActivationTanh),
		Accuracy:        0.87654,
		F1:              1,
		TrainingSeconds: 17,
	})
	assert.Equal(t, "3,0.0005,64,150,256,128,64,TANH,XAVIER,0.8765,1.0000,17", strings.Join(row, ","))
	assert.Len(t, row, len(Columns))
}

func TestBatcherFlushesAtThreshold(t *testing.T) {
	w := &memWriter{}
	var flushed []int
	b := NewBatcher(w, 2, func(n int, dest string) { flushed = append(flushed, n) })

	b.Append(completed(1, sampleConfig(32, models.ActivationReLU)))
	full, err := b.FlushIfFull()
	require.NoError(t, err)
	assert.False(t, full)

	b.Append(models.Outcome{Ordinal: 2, Err: errors.New("diverged")})
	b.Append(completed(3, sampleConfig(64, models.ActivationReLU)))
	full, err = b.FlushIfFull()
	require.NoError(t, err)
	assert.True(t, full)

	b.Append(completed(4, sampleConfig(128, models.ActivationReLU)))
	require.NoError(t, b.FlushRemaining())
	require.NoError(t, b.FlushRemaining())

	assert.Equal(t, []int{2, 1}, flushed)
	require.Len(t, w.batches, 2)
	assert.Equal(t, 1, w.batches[0][0].Ordinal)
	assert.Equal(t, 3, w.batches[0][1].Ordinal)

	stats := b.Stats()
	assert.Equal(t, Stats{Completed: 3, Failed: 1, Persisted: 3}, stats)
}

func TestBatcherWriteErrorIsWrapped(t *testing.T) {
	w := &memWriter{err: errors.New("disk full")}
	b := NewBatcher(w, 1, nil)
	b.Append(completed(1, sampleConfig(32, models.ActivationReLU)))

	_, err := b.FlushIfFull()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink:")
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, b.Stats().Buffered)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCSVHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	w, persisted, err := OpenCSV(path, config.ModeResume)
	require.NoError(t, err)
	assert.Empty(t, persisted)
	require.NoError(t, w.WriteResults([]models.TrialResult{*completed(1, sampleConfig(32, models.ActivationReLU)).Result}))
	require.NoError(t, w.Close())

	w, persisted, err = OpenCSV(path, config.ModeResume)
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
	require.NoError(t, w.WriteResults([]models.TrialResult{*completed(2, sampleConfig(32, models.ActivationTanh)).Result}))
	require.NoError(t, w.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "2,0.0005,32,150,256,128,64,TANH,XAVIER,"))
}

func TestCSVResumeEmptyFileWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	w, persisted, err := OpenCSV(path, config.ModeResume)
	require.NoError(t, err)
	assert.Empty(t, persisted)
	require.NoError(t, w.WriteResults([]models.TrialResult{*completed(1, sampleConfig(32, models.ActivationReLU)).Result}))
	require.NoError(t, w.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])

	w, persisted, err = OpenCSV(path, config.ModeResume)
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
	require.NoError(t, w.Close())
}

func TestCSVModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	_, _, err := OpenCSV(path, config.ModeFail)
	assert.ErrorIs(t, err, ErrDestinationExists)

	_, _, err = OpenCSV(path, config.ModeResume)
	assert.Error(t, err)

	w, persisted, err := OpenCSV(path, config.ModeOverwrite)
	require.NoError(t, err)
	assert.Empty(t, persisted)
	require.NoError(t, w.Close())
	assert.Equal(t, []string{strings.Join(Columns, ",")}, readLines(t, path))
}

func TestPersistedVerify(t *testing.T) {
	configs := []models.HyperparameterConfig{
		sampleConfig(32, models.ActivationReLU),
		sampleConfig(32, models.ActivationTanh),
	}
	ok := Persisted{2: FormatRow(models.TrialResult{Ordinal: 2, Config: configs[1]})[:configColumns]}
	assert.NoError(t, ok.Verify(configs))

	wrong := Persisted{1: FormatRow(models.TrialResult{Ordinal: 1, Config: configs[1]})[:configColumns]}
	assert.ErrorIs(t, wrong.Verify(configs), ErrResumeMismatch)

	outside := Persisted{9: FormatRow(models.TrialResult{Ordinal: 9, Config: configs[0]})[:configColumns]}
	assert.ErrorIs(t, outside.Verify(configs), ErrResumeMismatch)
}

func TestSQLiteResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	w, persisted, err := OpenSQLite(path, config.ModeFail)
	require.NoError(t, err)
	assert.Empty(t, persisted)
	require.NoError(t, w.WriteResults([]models.TrialResult{
		*completed(1, sampleConfig(32, models.ActivationReLU)).Result,
		*completed(2, sampleConfig(32, models.ActivationTanh)).Result,
	}))
	n, err := w.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, w.Close())

	_, _, err = OpenSQLite(path, config.ModeFail)
	assert.ErrorIs(t, err, ErrDestinationExists)

	w, persisted, err = OpenSQLite(path, config.ModeResume)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	assert.NoError(t, persisted.Verify([]models.HyperparameterConfig{
		sampleConfig(32, models.ActivationReLU),
		sampleConfig(32, models.ActivationTanh),
	}))
	// same ordinal twice violates the primary key
	assert.Error(t, w.WriteResults([]models.TrialResult{*completed(1, sampleConfig(32, models.ActivationReLU)).Result}))
	require.NoError(t, w.Close())

	w, persisted, err = OpenSQLite(path, config.ModeOverwrite)
	require.NoError(t, err)
	assert.Empty(t, persisted)
	require.NoError(t, w.Close())
}

func TestOpenDispatch(t *testing.T) {
	dir := t.TempDir()
	w, _, err := Open(config.Output{Path: filepath.Join(dir, "a.csv"), Format: config.FormatCSV, Mode: config.ModeFail})
	require.NoError(t, err)
	assert.IsType(t, &CSVWriter{}, w)
	require.NoError(t, w.Close())

	_, _, err = Open(config.Output{Path: filepath.Join(dir, "a.parquet"), Format: "parquet", Mode: config.ModeFail})
	assert.Error(t, err)
}
