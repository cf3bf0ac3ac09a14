package taskstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	// Registers the "postgres" driver with database/sql.
	_ "github.com/lib/pq"

	"creditdesk/internal/domain"
)

// driverName is the database/sql driver to use. Package-level for testing only;
// production always uses "postgres".
var driverName = "postgres"

// maxQueryRows bounds every task query.
const maxQueryRows = 100

// Connect opens a Postgres connection and verifies it with a ping.
func Connect(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// SQLStore is the Postgres-backed task store behind record_task and get_tasks.
type SQLStore struct {
	db *sql.DB

	// nowFunc supplies timestamps and the ms-epoch task id; injectable for tests.
	nowFunc func() time.Time
}

// NewSQLStore wraps db and ensures the tasks table exists.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	s := &SQLStore{db: db, nowFunc: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("taskstore migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			task_id       TEXT PRIMARY KEY,
			borrower_name TEXT NOT NULL,
			officer_name  TEXT NOT NULL,
			description   TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'open',
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// newTaskID returns a millisecond-epoch identifier. Stable, sortable, and
// unique enough for a single-writer operations desk.
func (s *SQLStore) newTaskID() string {
	return strconv.FormatInt(s.nowFunc().UnixMilli(), 10)
}

// RecordTask implements domain.TaskStore. The insert is a single statement:
// it either fully succeeds or reports an error, never a partial write.
func (s *SQLStore) RecordTask(ctx context.Context, borrower, officer, note, status string) (domain.TaskRecord, error) {
	if status == "" {
		status = domain.StatusOpen
	}
	if !domain.ValidStatus(status) {
		return domain.TaskRecord{}, fmt.Errorf("taskstore: invalid status %q", status)
	}

	now := s.nowFunc().UTC()
	record := domain.TaskRecord{
		TaskID:    s.newTaskID(),
		Borrower:  borrower,
		Officer:   officer,
		Note:      note,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (task_id, borrower_name, officer_name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.TaskID, record.Borrower, record.Officer, record.Note, record.Status, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return domain.TaskRecord{}, fmt.Errorf("taskstore insert: %w", err)
	}
	return record, nil
}

// buildTasksQuery assembles the filtered select. Split out so the SQL shape is
// unit-testable without a live database.
func buildTasksQuery(f domain.TaskFilter) (string, []any) {
	query := "SELECT task_id, borrower_name, officer_name, description, status, created_at, updated_at FROM tasks WHERE 1=1"
	var args []any

	if f.Borrower != "" {
		args = append(args, "%"+f.Borrower+"%")
		query += fmt.Sprintf(" AND borrower_name ILIKE $%d", len(args))
	}
	if f.Officer != "" {
		args = append(args, "%"+f.Officer+"%")
		query += fmt.Sprintf(" AND officer_name ILIKE $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", maxQueryRows)
	return query, args
}

// GetTasks implements domain.TaskStore.
func (s *SQLStore) GetTasks(ctx context.Context, f domain.TaskFilter) ([]domain.TaskRecord, error) {
	if f.Status != "" && !domain.ValidStatus(f.Status) {
		return nil, fmt.Errorf("taskstore: invalid status %q", f.Status)
	}

	query, args := buildTasksQuery(f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("taskstore query: %w", err)
	}
	defer rows.Close()

	var records []domain.TaskRecord
	for rows.Next() {
		var r domain.TaskRecord
		if err := rows.Scan(&r.TaskID, &r.Borrower, &r.Officer, &r.Note, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("taskstore scan: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("taskstore rows: %w", err)
	}
	return records, nil
}

// Health implements domain.TaskStore: connectivity plus table presence.
func (s *SQLStore) Health(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("taskstore health: %w", err)
	}
	var hasTasks bool
	if err := s.db.QueryRowContext(ctx, "SELECT to_regclass('public.tasks') IS NOT NULL").Scan(&hasTasks); err != nil {
		return fmt.Errorf("taskstore health: %w", err)
	}
	if !hasTasks {
		return fmt.Errorf("taskstore health: tasks table missing")
	}
	return nil
}

// Ensure SQLStore implements domain.TaskStore.
var _ domain.TaskStore = (*SQLStore)(nil)
