// Package sqlite implements the run ledger on a local SQLite database.
// Every finished run writes one row plus one row per acquisition report;
// the history command reads them back.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/holobase-labs/seqpack-cli/internal/adapters/driven/ledger/sqlite/migrations"
	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
)

// Ensure Store implements the RunLedger interface.
var _ driven.RunLedger = (*Store)(nil)

// Store is the SQLite-backed run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite run ledger at the specified data directory.
// If dataDir is empty, defaults to ~/.seqpack/data/ledger.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".seqpack", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ledger.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// RecordRun stores a finished run's summary and its acquisition reports in
// one transaction.
func (s *Store) RecordRun(ctx context.Context, summary *domain.RunSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	runWarnings, err := json.Marshal(summary.Warnings)
	if err != nil {
		return fmt.Errorf("marshalling run warnings: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, input_dir, output_dir, started_at, finished_at, status, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			input_dir = excluded.input_dir,
			output_dir = excluded.output_dir,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			status = excluded.status,
			warnings = excluded.warnings
	`, summary.RunID, summary.InputDir, summary.OutputDir,
		summary.StartedAt.UTC(), summary.FinishedAt.UTC(), string(summary.Status),
		string(runWarnings))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	// Re-recording a run replaces its reports wholesale.
	if _, err := tx.ExecContext(ctx, "DELETE FROM acquisition_reports WHERE run_id = ?", summary.RunID); err != nil {
		return fmt.Errorf("clearing reports: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO acquisition_reports
			(run_id, position, acquisition_id, source_folder, frames_processed,
			 frames_failed, sequences_emitted, lidar_copied, lidar_points,
			 pose_rows_skipped, unordered_by_time, pose_matched,
			 pose_mean_gap_seconds, pose_max_gap_seconds, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range summary.Reports {
		report := &summary.Reports[i]
		warningsJSON, err := json.Marshal(report.Warnings)
		if err != nil {
			return fmt.Errorf("marshalling warnings: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			summary.RunID, i, report.AcquisitionID, report.SourceFolder,
			report.FramesProcessed, report.FramesFailed, report.SequencesEmitted,
			report.LidarCopied, report.LidarPoints, report.PoseRowsSkipped,
			report.UnorderedByTime, report.PoseStats.Matched,
			report.PoseStats.MeanGapSeconds, report.PoseStats.MaxGapSeconds,
			string(warningsJSON)); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, each with its
// acquisition reports.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input_dir, output_dir, started_at, finished_at, status, warnings
		FROM runs ORDER BY started_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		reports, err := s.loadReports(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Reports = reports
	}
	return runs, nil
}

// GetRun returns one run by id with its acquisition reports.
func (s *Store) GetRun(ctx context.Context, runID string) (*domain.RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, input_dir, output_dir, started_at, finished_at, status, warnings
		FROM runs WHERE id = ?
	`, runID)

	var run domain.RunSummary
	var status, warningsJSON string
	var startedAt, finishedAt sql.NullTime
	if err := row.Scan(&run.RunID, &run.InputDir, &run.OutputDir, &startedAt, &finishedAt, &status, &warningsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = domain.RunStatus(status)
	if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshaling run warnings: %w", err)
	}
	if startedAt.Valid {
		run.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}

	reports, err := s.loadReports(ctx, run.RunID)
	if err != nil {
		return nil, err
	}
	run.Reports = reports
	return &run, nil
}

// loadReports reads the acquisition reports of one run in position order.
func (s *Store) loadReports(ctx context.Context, runID string) ([]domain.AcquisitionReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT acquisition_id, source_folder, frames_processed, frames_failed,
		       sequences_emitted, lidar_copied, lidar_points, pose_rows_skipped,
		       unordered_by_time, pose_matched, pose_mean_gap_seconds,
		       pose_max_gap_seconds, warnings
		FROM acquisition_reports WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.AcquisitionReport //nolint:prealloc // size unknown from query
	for rows.Next() {
		var report domain.AcquisitionReport
		var warningsJSON string
		if err := rows.Scan(&report.AcquisitionID, &report.SourceFolder,
			&report.FramesProcessed, &report.FramesFailed, &report.SequencesEmitted,
			&report.LidarCopied, &report.LidarPoints, &report.PoseRowsSkipped,
			&report.UnorderedByTime, &report.PoseStats.Matched,
			&report.PoseStats.MeanGapSeconds, &report.PoseStats.MaxGapSeconds,
			&warningsJSON); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		if err := json.Unmarshal([]byte(warningsJSON), &report.Warnings); err != nil {
			return nil, fmt.Errorf("unmarshaling warnings: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}
	return reports, nil
}

// scanRun scans a run row without its reports.
func scanRun(rows *sql.Rows) (*domain.RunSummary, error) {
	var run domain.RunSummary
	var status, warningsJSON string
	var startedAt, finishedAt sql.NullTime
	if err := rows.Scan(&run.RunID, &run.InputDir, &run.OutputDir, &startedAt, &finishedAt, &status, &warningsJSON); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = domain.RunStatus(status)
	if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshaling run warnings: %w", err)
	}
	if startedAt.Valid {
		run.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}
