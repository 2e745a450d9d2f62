package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/navvy-ai/navvy/core"
)

// SQLiteStore is a durable core.Store backed by a single SQLite database
// file. Message order is a monotonic sequence column, so append order
// survives restarts. The driver is pure Go; no cgo is required.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// initializes the schema. WAL mode keeps concurrent readers cheap and the
// busy timeout absorbs short write contention.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			conversation_id TEXT NOT NULL,
			type TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			model_visible INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 40)], err)
		}
	}
	return nil
}

// CreateConversation registers a new conversation. Creating an existing ID
// is an error.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv core.Conversation) error {
	meta, err := json.Marshal(conv.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, project_id, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.ProjectID, string(meta), conv.Created.UnixNano(), conv.Updated.UnixNano())
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// GetConversation returns the conversation, or core.ErrConversationNotFound.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (core.Conversation, error) {
	var (
		conv             core.Conversation
		meta             string
		created, updated int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, metadata, created_at, updated_at FROM conversations WHERE id = ?`, id).
		Scan(&conv.ID, &conv.ProjectID, &meta, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Conversation{}, core.ErrConversationNotFound
	}
	if err != nil {
		return core.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}

	if err := json.Unmarshal([]byte(meta), &conv.Metadata); err != nil {
		return core.Conversation{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	conv.Created = time.Unix(0, created).UTC()
	conv.Updated = time.Unix(0, updated).UTC()
	return conv, nil
}

// DeleteConversation removes the conversation and its message log.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrConversationNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return tx.Commit()
}

// AppendMessage appends one record to the conversation's log. The append is
// transactional: the record lands and the conversation timestamp advances,
// or neither happens.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg core.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM conversations WHERE id = ?`, msg.ConversationID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrConversationNotFound
	}
	if err != nil {
		return fmt.Errorf("check conversation: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, type, role, content, model_visible, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Type, msg.Role, msg.Content, boolToInt(msg.ModelVisible), msg.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().UnixNano(), msg.ConversationID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return tx.Commit()
}

// Messages returns the full log in append order.
func (s *SQLiteStore) Messages(ctx context.Context, conversationID string) ([]core.Message, error) {
	return s.queryMessages(ctx, conversationID, false)
}

// ModelHistory returns only model-visible records, in append order.
func (s *SQLiteStore) ModelHistory(ctx context.Context, conversationID string) ([]core.Message, error) {
	return s.queryMessages(ctx, conversationID, true)
}

func (s *SQLiteStore) queryMessages(ctx context.Context, conversationID string, visibleOnly bool) ([]core.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	query := `SELECT id, conversation_id, type, role, content, model_visible, created_at
		FROM messages WHERE conversation_id = ?`
	if visibleOnly {
		query += ` AND model_visible = 1`
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []core.Message
	for rows.Next() {
		var (
			msg     core.Message
			visible int
			created int64
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Type, &msg.Role, &msg.Content, &visible, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.ModelVisible = visible != 0
		msg.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
