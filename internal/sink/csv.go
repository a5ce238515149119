package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/config"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// CSVWriter appends result rows to a comma-separated file
type CSVWriter struct {
	path string
	f    *os.File
	w    *csv.Writer
}

// OpenCSV opens path according to mode. The header row is written only when
// the file is created or truncated by this call.
func OpenCSV(path, mode string) (*CSVWriter, Persisted, error) {
	info, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
	}

	persisted := Persisted{}
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	switch mode {
	case config.ModeFail:
		if exists {
			return nil, nil, fmt.Errorf("%w: %s", ErrDestinationExists, path)
		}
	case config.ModeOverwrite:
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		exists = false
	case config.ModeResume:
		// an empty file has no header yet and is treated as new
		if exists && info.Size() == 0 {
			exists = false
		}
		if exists {
			var err error
			persisted, err = readCSV(path)
			if err != nil {
				return nil, nil, err
			}
		}
	default:
		return nil, nil, fmt.Errorf("unsupported mode: %s", mode)
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	cw := &CSVWriter{path: path, f: f, w: csv.NewWriter(f)}
	if !exists {
		if err := cw.writeAndSync([][]string{Columns}); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failed to write header to %s: %w", path, err)
		}
	}
	return cw, persisted, nil
}

// readCSV loads the identifying columns of every row of an existing file
func readCSV(path string) (Persisted, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Columns)

	persisted := Persisted{}
	header, err := r.Read()
	if err == io.EOF {
		return persisted, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	for i, col := range Columns {
		if header[i] != col {
			return nil, fmt.Errorf("%w: %s has column %q where %q was expected", ErrResumeMismatch, path, header[i], col)
		}
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		ordinal, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: bad trial ordinal %q in %s", ErrResumeMismatch, rec[0], path)
		}
		if _, dup := persisted[ordinal]; dup {
			return nil, fmt.Errorf("%w: trial %d appears twice in %s", ErrResumeMismatch, ordinal, path)
		}
		persisted[ordinal] = rec[:configColumns]
	}
	return persisted, nil
}

// WriteResults appends rows and syncs the file
func (c *CSVWriter) WriteResults(results []models.TrialResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, FormatRow(r))
	}
	return c.writeAndSync(rows)
}

func (c *CSVWriter) writeAndSync(rows [][]string) error {
	if err := c.w.WriteAll(rows); err != nil {
		return err
	}
	return c.f.Sync()
}

func (c *CSVWriter) Dest() string {
	return c.path
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}
