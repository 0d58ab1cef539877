package convo

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestSaveConversationEmpty(t *testing.T) {
	s := &Store{logger: slog.Default()}

	res, err := s.SaveConversation(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}
	if res.Saved {
		t.Error("empty transcript must report Saved == false")
	}
}

func TestWrapSaveError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "messages_conversation_id_turn_index_key"}

	err := wrapSaveError(pgErr)
	var integErr *IntegrityError
	if !errors.As(err, &integErr) {
		t.Fatalf("expected *IntegrityError, got %T", err)
	}
	if integErr.Constraint != "messages_conversation_id_turn_index_key" {
		t.Errorf("constraint = %q", integErr.Constraint)
	}

	plain := errors.New("connection refused")
	if wrapped := wrapSaveError(plain); !errors.Is(wrapped, plain) {
		t.Error("non-constraint errors must pass through wrapped")
	}
}
