// Package convo persists finished conversations. The agent loop keeps
// history in memory; on exit the full transcript is written here in one
// transaction.
package convo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Message roles accepted by the messages table CHECK constraint.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// Message is one turn of a conversation transcript.
type Message struct {
	Role       string
	Content    string
	ToolName   *string
	TokenUsage map[string]any
	Meta       map[string]any
	CreatedAt  time.Time
}

// SaveResult reports the outcome of a save. Saved is false when there
// was nothing to persist; checking it replaces a magic sentinel id.
type SaveResult struct {
	Saved          bool
	ConversationID uuid.UUID
}

// IntegrityError reports a constraint violation while saving. The
// transaction is rolled back in full.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on %s: %v", e.Constraint, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Store writes conversations and their messages to PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store over the given pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// SaveConversation persists a whole transcript plus its summary in a
// single transaction. An empty transcript is a no-op with
// SaveResult.Saved == false. Any constraint violation rolls the whole
// conversation back and surfaces as *IntegrityError.
func (s *Store) SaveConversation(ctx context.Context, messages []Message, summary string) (SaveResult, error) {
	if len(messages) == 0 {
		s.logger.Debug("no messages to save")
		return SaveResult{}, nil
	}

	id := uuid.New()
	now := time.Now().UTC()
	startedAt := messages[0].CreatedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	endedAt := messages[len(messages)-1].CreatedAt
	if endedAt.IsZero() {
		endedAt = now
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return SaveResult{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO conversations (id, summary, started_at, ended_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, summary, startedAt, endedAt, now); err != nil {
		return SaveResult{}, wrapSaveError(err)
	}

	for i, msg := range messages {
		createdAt := msg.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO messages
				(id, conversation_id, turn_index, role, content, tool_name, token_usage, meta, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), id, i, msg.Role, msg.Content,
			msg.ToolName, msg.TokenUsage, msg.Meta, createdAt); err != nil {
			return SaveResult{}, wrapSaveError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return SaveResult{}, fmt.Errorf("committing conversation: %w", err)
	}

	s.logger.Info("conversation saved", "conversation_id", id, "messages", len(messages))
	return SaveResult{Saved: true, ConversationID: id}, nil
}

func wrapSaveError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return &IntegrityError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return fmt.Errorf("saving conversation: %w", err)
}
