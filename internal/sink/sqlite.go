package sink

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/config"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// SQLiteWriter stores results in a SQLite table keyed by trial ordinal
type SQLiteWriter struct {
	path string
	db   *sql.DB
}

const createResultsTable = `CREATE TABLE IF NOT EXISTS grid_search_results (
	trial INTEGER PRIMARY KEY,
	learning_rate TEXT NOT NULL,
	batch_size INTEGER NOT NULL,
	epochs INTEGER NOT NULL,
	l1_neurons INTEGER NOT NULL,
	l2_neurons INTEGER NOT NULL,
	l3_neurons INTEGER NOT NULL,
	activation TEXT NOT NULL,
	weight_init TEXT NOT NULL,
	accuracy REAL NOT NULL,
	f1_score REAL NOT NULL,
	training_time INTEGER NOT NULL
)`

// OpenSQLite opens or creates the database at path according to mode
func OpenSQLite(path, mode string) (*SQLiteWriter, Persisted, error) {
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
	}

	switch mode {
	case config.ModeFail:
		if exists {
			return nil, nil, fmt.Errorf("%w: %s", ErrDestinationExists, path)
		}
	case config.ModeOverwrite:
		if exists {
			if err := os.Remove(path); err != nil {
				return nil, nil, fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	case config.ModeResume:
	default:
		return nil, nil, fmt.Errorf("unsupported mode: %s", mode)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	// results are written by a single owner
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createResultsTable); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create results table: %w", err)
	}

	s := &SQLiteWriter{path: path, db: db}
	persisted, err := s.load()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, persisted, nil
}

func (s *SQLiteWriter) load() (Persisted, error) {
	rows, err := s.db.Query(`SELECT trial, learning_rate, batch_size, epochs, l1_neurons, l2_neurons, l3_neurons, activation, weight_init FROM grid_search_results`)
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted results: %w", err)
	}
	defer rows.Close()

	persisted := Persisted{}
	for rows.Next() {
		var (
			r  models.TrialResult
			lr string
		)
		if err := rows.Scan(&r.Ordinal, &lr, &r.Config.BatchSize, &r.Config.Epochs,
			&r.Config.Layer1Neurons, &r.Config.Layer2Neurons, &r.Config.Layer3Neurons,
			&r.Config.Activation, &r.Config.WeightInit); err != nil {
			return nil, fmt.Errorf("failed to scan persisted result: %w", err)
		}
		row := FormatRow(r)[:configColumns]
		row[1] = lr
		persisted[r.Ordinal] = row
	}
	return persisted, rows.Err()
}

// WriteResults inserts rows in one transaction
func (s *SQLiteWriter) WriteResults(results []models.TrialResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO grid_search_results
		(trial, learning_rate, batch_size, epochs, l1_neurons, l2_neurons, l3_neurons, activation, weight_init, accuracy, f1_score, training_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		row := FormatRow(r)
		c := r.Config
		if _, err := stmt.Exec(r.Ordinal, row[1], c.BatchSize, c.Epochs,
			c.Layer1Neurons, c.Layer2Neurons, c.Layer3Neurons,
			string(c.Activation), string(c.WeightInit),
			r.Accuracy, r.F1, r.TrainingSeconds); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert trial %d: %w", r.Ordinal, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored rows
func (s *SQLiteWriter) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM grid_search_results`).Scan(&n)
	return n, err
}

func (s *SQLiteWriter) Dest() string {
	return s.path
}

func (s *SQLiteWriter) Close() error {
	return s.db.Close()
}
