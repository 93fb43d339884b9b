package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/coverscan/internal/model"
	"github.com/ppiankov/coverscan/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores the run and its records in one transaction and returns the run id
func (s *Store) SaveRun(ctx context.Context, run store.Run) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO scrape_runs (started_at, finished_at, source_url, output_path, country_count)
		VALUES (?, ?, ?, ?, ?)
	`, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.SourceURL, run.OutputPath, len(run.Records))
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO country_records (
			run_id, position, country_name, risk_classification,
			public_buyer_policy, private_buyer_policy, bank_policy
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, r := range run.Records {
		if _, err = stmt.ExecContext(ctx,
			id, i, r.Name, r.RiskClassification,
			r.PublicBuyerPolicy, r.PrivateBuyerPolicy, r.BankPolicy,
		); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// RunRecords returns the records of a stored run in their original order
func (s *Store) RunRecords(ctx context.Context, runID int64) ([]model.CountryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT country_name, risk_classification, public_buyer_policy, private_buyer_policy, bank_policy
		FROM country_records
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.CountryRecord
	for rows.Next() {
		var r model.CountryRecord
		if err := rows.Scan(&r.Name, &r.RiskClassification, &r.PublicBuyerPolicy, &r.PrivateBuyerPolicy, &r.BankPolicy); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			source_url TEXT NOT NULL,
			output_path TEXT,
			country_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS country_records (
			run_id INTEGER NOT NULL REFERENCES scrape_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			country_name TEXT NOT NULL,
			risk_classification TEXT NOT NULL,
			public_buyer_policy TEXT NOT NULL,
			private_buyer_policy TEXT NOT NULL,
			bank_policy TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
