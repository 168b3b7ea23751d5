package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned when a run id has no history row.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ RunStore = (*SQLiteStore)(nil)

// Config holds SQLite store configuration.
type Config struct {
	Path string
}

// NewSQLiteStore creates a new SQLite store instance. Call Init before use.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: cfg.Path}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// A local CLI never needs more than one writer.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs the embedded schema migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// CreateRun records the start of a workflow execution attempt.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *DeploymentRun) error {
	query := `
		INSERT INTO runs (id, environment, workflow, status, started_at, completed_at, failed_step, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Environment,
		run.Workflow,
		run.Status,
		run.StartedAt,
		run.CompletedAt,
		run.FailedStep,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun marks a run finished. failedStep and errMsg are nil for
// successful runs.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, status RunStatus, failedStep, errMsg *string) error {
	query := `
		UPDATE runs
		SET status = ?, failed_step = ?, error = ?, completed_at = ?
		WHERE id = ?
	`

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query, status, failedStep, errMsg, now, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetRun retrieves a run by its trace id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*DeploymentRun, error) {
	query := `
		SELECT id, environment, workflow, status, started_at, completed_at, failed_step, error
		FROM runs
		WHERE id = ?
	`

	run := &DeploymentRun{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Environment,
		&run.Workflow,
		&run.Status,
		&run.StartedAt,
		&run.CompletedAt,
		&run.FailedStep,
		&run.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRunsByEnvironment lists an environment's runs, newest first.
func (s *SQLiteStore) ListRunsByEnvironment(ctx context.Context, environment string, limit, offset int) ([]*DeploymentRun, error) {
	query := `
		SELECT id, environment, workflow, status, started_at, completed_at, failed_step, error
		FROM runs
		WHERE environment = ?
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, environment, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*DeploymentRun{}
	for rows.Next() {
		run := &DeploymentRun{}
		err := rows.Scan(
			&run.ID,
			&run.Environment,
			&run.Workflow,
			&run.Status,
			&run.StartedAt,
			&run.CompletedAt,
			&run.FailedStep,
			&run.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// DeleteRunsByEnvironment removes all history for an environment and returns
// the number of runs deleted. Step events cascade.
func (s *SQLiteStore) DeleteRunsByEnvironment(ctx context.Context, environment string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE environment = ?`, environment)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// AppendStepEvent appends a step event to a run's log.
func (s *SQLiteStore) AppendStepEvent(ctx context.Context, event *StepEvent) error {
	query := `
		INSERT INTO step_events (run_id, step, status, message, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		event.RunID,
		event.Step,
		event.Status,
		event.Message,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append step event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get step event ID: %w", err)
	}
	event.ID = id
	return nil
}

// ListStepEvents lists a run's step events in insertion order.
func (s *SQLiteStore) ListStepEvents(ctx context.Context, runID string) ([]*StepEvent, error) {
	query := `
		SELECT id, run_id, step, status, message, timestamp
		FROM step_events
		WHERE run_id = ?
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list step events: %w", err)
	}
	defer rows.Close()

	events := []*StepEvent{}
	for rows.Next() {
		event := &StepEvent{}
		err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.Step,
			&event.Status,
			&event.Message,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating step events: %w", err)
	}
	return events, nil
}

// HealthCheck verifies the database connection is healthy.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}
