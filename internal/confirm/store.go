package confirm

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	// Registers the "sqlite" driver with database/sql (pure Go, no cgo).
	_ "modernc.org/sqlite"

	"creditdesk/internal/domain"
)

// NewPendingAction builds a PendingAction for a write-class tool request.
// The fingerprint ties a later confirmation to this exact request.
func NewPendingAction(sessionID string, req domain.ToolCallRequest) domain.PendingAction {
	return domain.PendingAction{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Tool:        req.Tool,
		Args:        req.Args,
		Fingerprint: Fingerprint(req),
		CreatedAt:   time.Now().UTC(),
	}
}

// Fingerprint returns a stable sha256 hex digest of a tool call request:
// tool name plus compacted argument JSON. Two requests for the same tool with
// the same arguments share a fingerprint.
func Fingerprint(req domain.ToolCallRequest) string {
	args := req.Args
	var compact json.RawMessage
	if err := json.Unmarshal(args, &compact); err == nil {
		if b, err := json.Marshal(compact); err == nil {
			args = b
		}
	}
	sum := sha256.Sum256([]byte(req.Tool + "\x00" + string(args)))
	return hex.EncodeToString(sum[:])
}

// SQLiteStore persists pending write actions in a local SQLite file so the
// confirmation gate survives a dropped connection or a process restart
// between the request turn and the confirm turn.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates (or opens) the SQLite file at path and ensures the schema.
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("confirm: path must not be empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("confirm open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("confirm ping: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("confirm migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	// session_id is the primary key: at most one pending action per session,
	// a newer request replaces the older one.
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS pending_actions (
			session_id  TEXT PRIMARY KEY,
			id          TEXT NOT NULL,
			tool        TEXT NOT NULL,
			arguments   TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)
	`)
	return err
}

// Put implements domain.PendingStore.
func (s *SQLiteStore) Put(ctx context.Context, action domain.PendingAction) error {
	if action.SessionID == "" {
		return fmt.Errorf("confirm: session id must not be empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_actions (session_id, id, tool, arguments, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			id = excluded.id,
			tool = excluded.tool,
			arguments = excluded.arguments,
			fingerprint = excluded.fingerprint,
			created_at = excluded.created_at`,
		action.SessionID, action.ID, action.Tool, string(action.Args), action.Fingerprint,
		action.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("confirm put: %w", err)
	}
	return nil
}

// Get implements domain.PendingStore.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (domain.PendingAction, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, id, tool, arguments, fingerprint, created_at
		FROM pending_actions WHERE session_id = ?`, sessionID)

	var action domain.PendingAction
	var args, createdAt string
	err := row.Scan(&action.SessionID, &action.ID, &action.Tool, &args, &action.Fingerprint, &createdAt)
	if err == sql.ErrNoRows {
		return domain.PendingAction{}, false, nil
	}
	if err != nil {
		return domain.PendingAction{}, false, fmt.Errorf("confirm get: %w", err)
	}
	action.Args = json.RawMessage(args)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		action.CreatedAt = ts
	}
	return action, true, nil
}

// Delete implements domain.PendingStore.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_actions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements domain.PendingStore.
var _ domain.PendingStore = (*SQLiteStore)(nil)
