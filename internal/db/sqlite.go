package db

import (
	"database/sql"
	"fmt"

	"github.com/aurora-chat/aurora/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);`

// StorageError wraps a failed durable read or write. It is fatal for the
// operation that triggered it; callers must not treat it as reply content.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type Store struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema. The schema is
// idempotent, so calling New on every startup is safe.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &StorageError{Op: "init", Err: err}
	}

	return &Store{db: db}, nil
}

// AppendMessage inserts one message with a server-assigned timestamp and
// auto-incremented id. Rows are never overwritten; ids within a session are
// strictly increasing.
func (s *Store) AppendMessage(sessionID, role, content string) (*models.Message, error) {
	if !models.ValidRole(role) {
		return nil, &StorageError{Op: "append", Err: fmt.Errorf("invalid role %q", role)}
	}

	query := `
        INSERT INTO messages (session_id, role, content, created_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        RETURNING id, created_at`

	msg := &models.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	if err := s.db.QueryRow(query, sessionID, role, content).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, &StorageError{Op: "append", Err: err}
	}
	return msg, nil
}

// LoadHistory returns every message for the session in insertion order.
// A session with no messages yields an empty slice.
func (s *Store) LoadHistory(sessionID string) ([]models.Message, error) {
	query := `
        SELECT id, session_id, role, content, created_at
        FROM messages
        WHERE session_id = ?
        ORDER BY id`

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, &StorageError{Op: "load", Err: err}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	return messages, nil
}

// ClearHistory deletes every message for the session. Clearing an empty or
// unknown session succeeds as a no-op.
func (s *Store) ClearHistory(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
