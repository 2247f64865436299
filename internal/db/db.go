// Package db keeps the sync journal in SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
)

// DB represents a journal database connection
type DB struct {
	*sql.DB
	sq sq.StatementBuilderType
}

// New opens (and if needed creates) the journal at path
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one writer; sqlite serializes anyway
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, sq: sq.StatementBuilder}
	if err := db.initialize(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize journal: %w", err)
	}
	return db, nil
}

// initialize creates the necessary tables if they don't exist
func (db *DB) initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			release TEXT NOT NULL,
			language TEXT NOT NULL,
			source TEXT NOT NULL,
			status TEXT NOT NULL,
			total INTEGER NOT NULL DEFAULT 0,
			fetched INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sync_failures (
			run_id TEXT NOT NULL REFERENCES sync_runs(id) ON DELETE CASCADE,
			module TEXT NOT NULL,
			branch TEXT NOT NULL,
			error TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON sync_runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_failures_run ON sync_failures(run_id);
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`)
	return err
}

// Record stores a finished run and its failures
func (db *DB) Record(ctx context.Context, run *models.SyncRun) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := db.sq.Insert("sync_runs").
		Columns("id", "release", "language", "source", "status", "total", "fetched", "skipped", "error", "started_at", "finished_at").
		Values(run.ID, run.Release, run.Language, run.Source, run.Status, run.Total, run.Fetched, run.Skipped, run.Error,
			formatTime(run.StartedAt), formatTime(run.FinishedAt))
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	if len(run.Failures) > 0 {
		fq := db.sq.Insert("sync_failures").Columns("run_id", "module", "branch", "error")
		for _, f := range run.Failures {
			fq = fq.Values(run.ID, f.Module, f.Branch, f.Error)
		}
		sqlStr, args, err := fq.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("insert failures for run %s: %w", run.ID, err)
		}
	}
	return tx.Commit()
}

var runColumns = []string{"id", "release", "language", "source", "status", "total", "fetched", "skipped", "error", "started_at", "finished_at"}

// ListRuns returns the latest runs, newest first, without their failures
func (db *DB) ListRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	q := db.sq.Select(runColumns...).From("sync_runs").OrderBy("started_at DESC", "rowid DESC").Limit(uint64(limit))
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its failures, or nil if it does not exist
func (db *DB) GetRun(ctx context.Context, id string) (*models.SyncRun, error) {
	q := db.sq.Select(runColumns...).From("sync_runs").Where(sq.Eq{"id": id}).Limit(1)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	run, err := scanRun(db.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fq := db.sq.Select("module", "branch", "error").From("sync_failures").Where(sq.Eq{"run_id": id}).OrderBy("rowid")
	sqlStr, args, err = fq.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var f models.SyncFailure
		if err := rows.Scan(&f.Module, &f.Branch, &f.Error); err != nil {
			return nil, err
		}
		run.Failures = append(run.Failures, f)
	}
	return run, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.SyncRun, error) {
	var run models.SyncRun
	var started, finished string
	err := s.Scan(&run.ID, &run.Release, &run.Language, &run.Source, &run.Status,
		&run.Total, &run.Fetched, &run.Skipped, &run.Error, &started, &finished)
	if err != nil {
		return nil, err
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
