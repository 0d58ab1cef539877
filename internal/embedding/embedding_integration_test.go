package embedding_test

import (
	"context"
	"testing"

	"github.com/healthnav/healthnav/internal/embedding"
	"github.com/healthnav/healthnav/internal/testutil"
)

func TestServiceEmbedTextDimension(t *testing.T) {
	setup := testutil.SetupEmbedder(t)
	svc := embedding.New(setup.Embedder, 1536)

	vec, err := svc.EmbedText(context.Background(), "강남구 암환자 의료비 지원")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if len(vec) != 1536 {
		t.Fatalf("vector dim = %d, want 1536", len(vec))
	}

	var nonZero bool
	for _, x := range vec {
		if x != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("embedding is all zeros")
	}
}
