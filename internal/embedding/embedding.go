// Package embedding wraps a Genkit embedder behind a small text-in,
// vector-out interface so the upload and retrieval paths do not depend
// on Genkit types directly.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// ErrEmptyText is returned when the input is empty or whitespace only.
// Callers treat this as a skip, not a failure.
var ErrEmptyText = errors.New("text is empty")

// Error reports a failed embedding call for a named field. The upload
// pipeline skips the field and continues with the rest of the document.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("embedding field %q: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Service produces embedding vectors via a Genkit embedder.
type Service struct {
	embedder ai.Embedder
	dim      int32
}

// New creates a Service backed by the given embedder. When dim is
// positive it is passed as OutputDimensionality so Gemini embedding
// models truncate their output to match the VECTOR(1536) column; pass 0
// for models that emit the target dimension natively.
func New(embedder ai.Embedder, dim int32) *Service {
	return &Service{embedder: embedder, dim: dim}
}

// EmbedText embeds a single text and returns its vector.
// Returns ErrEmptyText for blank input.
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	req := &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	}
	if s.dim > 0 {
		dim := s.dim
		req.Options = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	resp, err := s.embedder.Embed(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("embedder returned no embeddings")
	}

	return resp.Embeddings[0].Embedding, nil
}

// EmbedField embeds one named field of a document, wrapping any failure
// in an *Error carrying the field name.
func (s *Service) EmbedField(ctx context.Context, field, text string) ([]float32, error) {
	vec, err := s.EmbedText(ctx, text)
	if err != nil {
		if errors.Is(err, ErrEmptyText) {
			return nil, err
		}
		return nil, &Error{Field: field, Err: err}
	}
	return vec, nil
}
