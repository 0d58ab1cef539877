package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// mockEmbedder is a mock implementation of ai.Embedder for testing.
type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: m.vec}}}, nil
}

func (m *mockEmbedder) Name() string { return "mockEmbedder" }

func (m *mockEmbedder) Register(r api.Registry) {}

func TestEmbedText(t *testing.T) {
	svc := New(&mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}, 1536)

	vec, err := svc.EmbedText(context.Background(), "임산부 건강관리 지원")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("vector length = %d, want 3", len(vec))
	}
}

func TestEmbedTextEmpty(t *testing.T) {
	svc := New(&mockEmbedder{vec: []float32{1}}, 0)

	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := svc.EmbedText(context.Background(), input); !errors.Is(err, ErrEmptyText) {
			t.Errorf("EmbedText(%q) = %v, want ErrEmptyText", input, err)
		}
	}
}

func TestEmbedFieldWrapsError(t *testing.T) {
	svc := New(&mockEmbedder{err: errors.New("quota exceeded")}, 0)

	_, err := svc.EmbedField(context.Background(), "requirements", "소득 기준 중위 150% 이하")
	var embErr *Error
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if embErr.Field != "requirements" {
		t.Errorf("field = %q, want requirements", embErr.Field)
	}
}

func TestEmbedFieldEmptyIsSkip(t *testing.T) {
	svc := New(&mockEmbedder{vec: []float32{1}}, 0)

	_, err := svc.EmbedField(context.Background(), "benefits", "")
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText passthrough, got %v", err)
	}
	var embErr *Error
	if errors.As(err, &embErr) {
		t.Error("empty input should not produce a field Error")
	}
}
