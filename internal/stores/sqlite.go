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

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a sqlite-backed Operation/Event audit log.
type Store struct {
	db   *sql.DB
	path string
}

// Config holds Store connection settings.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens (creating if necessary) the sqlite database at cfg.Path and
// runs pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("stores: path is required")
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("stores: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("stores: ping: %w", err)
	}

	s := &Store{db: db, path: cfg.Path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("stores: migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("stores: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("stores: migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("stores: migrate: %w", err)
	}
	return nil
}

// CreateOperation inserts a new Operation row.
func (s *Store) CreateOperation(ctx context.Context, op *Operation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operations (id, name, status, started_at, completed_at, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.Name, op.Status, op.StartedAt, op.CompletedAt, op.Error, op.CreatedAt, op.UpdatedAt)
	if err != nil {
		return fmt.Errorf("stores: create operation: %w", err)
	}
	return nil
}

// GetOperation fetches an Operation by id.
func (s *Store) GetOperation(ctx context.Context, id string) (*Operation, error) {
	op := &Operation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, started_at, completed_at, error, created_at, updated_at
		FROM operations WHERE id = ?`, id).Scan(
		&op.ID, &op.Name, &op.Status, &op.StartedAt, &op.CompletedAt, &op.Error, &op.CreatedAt, &op.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stores: operation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("stores: get operation: %w", err)
	}
	return op, nil
}

// UpdateOperationStatus transitions an Operation's status, stamping
// completed_at when the status is terminal.
func (s *Store) UpdateOperationStatus(ctx context.Context, id string, status OperationStatus, errMsg *string) error {
	var completedAt *time.Time
	if status == OperationStatusCompleted || status == OperationStatusFailed || status == OperationStatusCancelled {
		now := time.Now()
		completedAt = &now
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE operations SET status = ?, error = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`, status, errMsg, completedAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("stores: update operation status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("stores: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("stores: operation %s not found", id)
	}
	return nil
}

// ListOperations returns up to limit operations, most recently created first.
func (s *Store) ListOperations(ctx context.Context, limit, offset int) ([]*Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, started_at, completed_at, error, created_at, updated_at
		FROM operations ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("stores: list operations: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op := &Operation{}
		if err := rows.Scan(&op.ID, &op.Name, &op.Status, &op.StartedAt, &op.CompletedAt, &op.Error, &op.CreatedAt, &op.UpdatedAt); err != nil {
			return nil, fmt.Errorf("stores: scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// AppendEvent appends one log line to an operation's event stream.
func (s *Store) AppendEvent(ctx context.Context, ev *Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (operation_id, level, message, created_at)
		VALUES (?, ?, ?, ?)`, ev.OperationID, ev.Level, ev.Message, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("stores: append event: %w", err)
	}
	return nil
}

// ListEvents returns an operation's events in insertion order.
func (s *Store) ListEvents(ctx context.Context, operationID string) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operation_id, level, message, created_at
		FROM events WHERE operation_id = ? ORDER BY id ASC`, operationID)
	if err != nil {
		return nil, fmt.Errorf("stores: list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		ev := &Event{}
		if err := rows.Scan(&ev.ID, &ev.OperationID, &ev.Level, &ev.Message, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("stores: scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
