package retrieval_test

import (
	"context"
	"testing"

	"github.com/healthnav/healthnav/internal/log"
	"github.com/healthnav/healthnav/internal/policy"
	"github.com/healthnav/healthnav/internal/retrieval"
	"github.com/healthnav/healthnav/internal/testutil"
)

// queryVec builds a 1536-dim vector from its first two components.
func queryVec(x, y float32) []float32 {
	v := make([]float32, 1536)
	v[0], v[1] = x, y
	return v
}

func seedCorpus(t *testing.T, docs []policy.NewDocument) *retrieval.Store {
	t.Helper()
	pool := testutil.SetupTestDB(t)

	writer, err := policy.NewStore(pool, log.NewNop())
	if err != nil {
		t.Fatalf("policy.NewStore: %v", err)
	}
	if err := writer.InsertBatch(context.Background(), docs); err != nil {
		t.Fatalf("seeding corpus: %v", err)
	}

	store, err := retrieval.NewStore(pool)
	if err != nil {
		t.Fatalf("retrieval.NewStore: %v", err)
	}
	return store
}

func TestStoreSearchOrdersBySimilarity(t *testing.T) {
	store := seedCorpus(t, []policy.NewDocument{
		{Title: "강남구 암환자 의료비 지원", Region: "강남구", URL: "https://health.gangnam.go.kr/a",
			Weight: 1, Vectors: map[string][]float32{policy.FieldTitle: queryVec(1, 0)}},
		{Title: "서초구 임산부 철분제 지원", Region: "서초구", URL: "https://seocho.go.kr/b",
			Weight: 1, Vectors: map[string][]float32{policy.FieldTitle: queryVec(0, 1)}},
		{Title: "송파구 건강검진 안내", Region: "송파구", URL: "https://songpa.go.kr/c",
			Weight: 1, Vectors: map[string][]float32{policy.FieldTitle: queryVec(0.7, 0.7)}},
	})
	ctx := context.Background()

	results, err := store.Search(ctx, queryVec(1, 0), 7)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	if results[0].DocID != 1 {
		t.Errorf("top result doc id = %d, want 1 (exact match)", results[0].DocID)
	}
	if results[0].Score < 0.999 {
		t.Errorf("exact match score = %v, want ~1.0", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not ordered by similarity: %v after %v",
				results[i].Score, results[i-1].Score)
		}
	}
	if results[0].Region != "강남구" || results[0].URL != "https://health.gangnam.go.kr/a" {
		t.Errorf("top result fields = %+v", results[0])
	}
}

func TestStoreSearchLimit(t *testing.T) {
	store := seedCorpus(t, []policy.NewDocument{
		{Title: "a", Weight: 1, Vectors: map[string][]float32{policy.FieldTitle: queryVec(1, 0)}},
		{Title: "b", Weight: 1, Vectors: map[string][]float32{policy.FieldTitle: queryVec(0, 1)}},
	})

	results, err := store.Search(context.Background(), queryVec(1, 0), 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want limit 1 respected", len(results))
	}
}

func TestStoreSummarize(t *testing.T) {
	store := seedCorpus(t, []policy.NewDocument{
		{Title: "강남구 지원 1", Region: "강남구", Weight: 1,
			Vectors: map[string][]float32{policy.FieldTitle: queryVec(1, 0)}},
		{Title: "강남구 지원 2", Region: "강남구", Weight: 1,
			Vectors: map[string][]float32{policy.FieldTitle: queryVec(0, 1)}},
		{Title: "전국 지원", Region: "전국", Weight: 1,
			Vectors: map[string][]float32{policy.FieldTitle: queryVec(0.7, 0.7)}},
	})
	ctx := context.Background()

	n, err := store.CountEmbeddings(ctx)
	if err != nil {
		t.Fatalf("CountEmbeddings: %v", err)
	}
	if n != 3 {
		t.Errorf("embeddings = %d, want 3", n)
	}

	sum, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.TotalDocs != 3 {
		t.Errorf("total docs = %d, want 3", sum.TotalDocs)
	}
	if len(sum.Regions) != 2 || sum.Regions[0].Region != "강남구" || sum.Regions[0].Count != 2 {
		t.Errorf("region distribution = %+v", sum.Regions)
	}
	if len(sum.Recent) != 3 || sum.Recent[0].Title != "전국 지원" {
		t.Errorf("recent docs = %+v, want newest first", sum.Recent)
	}
}
