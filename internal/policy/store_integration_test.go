package policy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/healthnav/healthnav/internal/log"
	"github.com/healthnav/healthnav/internal/policy"
	"github.com/healthnav/healthnav/internal/testutil"
)

// titleVec builds a 1536-dim vector whose first two components carry the
// direction; the rest are zero. Enough to give documents distinct,
// known cosine similarities.
func titleVec(x, y float32) []float32 {
	v := make([]float32, 1536)
	v[0], v[1] = x, y
	return v
}

func TestStoreUpsertEmbeddingReplaces(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	store, err := policy.NewStore(pool, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	first := titleVec(1, 0)
	if err := store.InsertBatch(ctx, []policy.NewDocument{{
		Title:   "강남구 암환자 의료비 지원",
		Region:  "강남구",
		Weight:  1,
		Vectors: map[string][]float32{policy.FieldTitle: first},
	}}); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	second := titleVec(0, 1)
	if err := store.UpsertEmbedding(ctx, 1, policy.FieldTitle, second); err != nil {
		t.Fatalf("UpsertEmbedding: %v", err)
	}

	var count int
	var stored pgvector.Vector
	var createdAt time.Time
	err = pool.QueryRow(ctx, `
		SELECT count(*) OVER (), embedding, created_at
		FROM embeddings WHERE doc_id = $1 AND field = $2`,
		int64(1), policy.FieldTitle).Scan(&count, &stored, &createdAt)
	if err != nil {
		t.Fatalf("reading embedding row: %v", err)
	}

	if count != 1 {
		t.Errorf("embedding rows for (1, title) = %d, want 1 after upsert", count)
	}
	got := stored.Slice()
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("embedding = (%v, %v, ...), want the replacement vector (0, 1, ...)", got[0], got[1])
	}
	if createdAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func TestStoreUpsertEmbeddingForeignKey(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	store, err := policy.NewStore(pool, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	err = store.UpsertEmbedding(context.Background(), 424242, policy.FieldTitle, titleVec(1, 0))

	var ierr *policy.IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *IntegrityError for missing document, got %v", err)
	}
}

func TestStoreInsertBatchRollsBackOnFailure(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	store, err := policy.NewStore(pool, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	// Second document carries a vector of the wrong dimension; the
	// insert fails and the whole batch must roll back.
	err = store.InsertBatch(ctx, []policy.NewDocument{
		{Title: "보건소 건강검진", Weight: 1, Vectors: map[string][]float32{policy.FieldTitle: titleVec(1, 0)}},
		{Title: "임산부 철분제", Weight: 1, Vectors: map[string][]float32{policy.FieldTitle: {1, 0, 0}}},
	})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}

	n, err := store.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("documents after failed batch = %d, want 0", n)
	}
}

func TestStoreGroupingRoundTrip(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	store, err := policy.NewStore(pool, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	docs := []policy.NewDocument{
		{Title: "암환자 의료비 지원", Weight: 1, Vectors: map[string][]float32{policy.FieldTitle: titleVec(1, 0)}},
		{Title: "암 환자 의료비 지원사업", Weight: 1, Vectors: map[string][]float32{policy.FieldTitle: titleVec(0.93, 0.368)}},
		{Title: "임산부 영양제", Weight: 1}, // no embedding yet
	}
	if err := store.InsertBatch(ctx, docs); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	ungrouped, err := store.ListUngrouped(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListUngrouped: %v", err)
	}
	if len(ungrouped) != 3 {
		t.Fatalf("ungrouped = %d docs, want 3", len(ungrouped))
	}
	for i := 1; i < len(ungrouped); i++ {
		if ungrouped[i].DocID <= ungrouped[i-1].DocID {
			t.Fatalf("ungrouped docs out of order: %d before %d", ungrouped[i-1].DocID, ungrouped[i].DocID)
		}
	}
	if ungrouped[2].Vector != nil {
		t.Error("document without title embedding should carry a nil vector")
	}

	if err := store.AssignPolicyIDs(ctx, []policy.Assignment{
		{DocID: 1, PolicyID: 1},
		{DocID: 2, PolicyID: 1},
	}); err != nil {
		t.Fatalf("AssignPolicyIDs: %v", err)
	}

	reps, err := store.ListRepresentatives(ctx)
	if err != nil {
		t.Fatalf("ListRepresentatives: %v", err)
	}
	if len(reps) != 1 {
		t.Fatalf("representatives = %d, want 1", len(reps))
	}
	if reps[0].DocID != 1 || reps[0].PolicyID != 1 {
		t.Errorf("representative = %+v, want lowest-id member of group 1", reps[0])
	}
	if len(reps[0].Vector) != 1536 {
		t.Errorf("representative vector dim = %d, want 1536", len(reps[0].Vector))
	}

	// Grouped documents must not come back; the embedding-less one must.
	remaining, err := store.ListUngrouped(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListUngrouped after assignment: %v", err)
	}
	if len(remaining) != 1 || remaining[0].DocID != 3 {
		t.Errorf("remaining ungrouped = %+v, want only doc 3", remaining)
	}

	cleared, err := store.ResetPolicyIDs(ctx)
	if err != nil {
		t.Fatalf("ResetPolicyIDs: %v", err)
	}
	if cleared != 2 {
		t.Errorf("reset cleared %d documents, want 2", cleared)
	}
}
