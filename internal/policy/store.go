package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const insertDocumentSQL = `INSERT INTO documents
	(title, requirements, benefits, raw_text, url, region, sitename, weight)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

const upsertEmbeddingSQL = `INSERT INTO embeddings (doc_id, field, embedding)
	VALUES ($1, $2, $3)
	ON CONFLICT (doc_id, field) DO UPDATE SET embedding = EXCLUDED.embedding`

// Store persists documents, embeddings and grouping assignments.
//
// Store is safe for concurrent use by multiple goroutines.
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

// Truncate removes all documents. Embeddings go with them via
// ON DELETE CASCADE, and identifiers restart from 1.
func (s *Store) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE documents RESTART IDENTITY CASCADE`); err != nil {
		return fmt.Errorf("truncating documents: %w", err)
	}
	return nil
}

// InsertBatch inserts a batch of documents with their embeddings in a
// single transaction. A failure rolls back the whole batch.
func (s *Store) InsertBatch(ctx context.Context, docs []NewDocument) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, doc := range docs {
		if err := s.insertDocument(ctx, tx, doc); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (s *Store) insertDocument(ctx context.Context, q querier, doc NewDocument) error {
	var id int64
	err := q.QueryRow(ctx, insertDocumentSQL,
		doc.Title, doc.Requirements, doc.Benefits, doc.RawText,
		doc.URL, doc.Region, doc.Sitename, doc.Weight,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("inserting document %q: %w", doc.Title, wrapPgError(err))
	}

	for field, vec := range doc.Vectors {
		if _, err := q.Exec(ctx, upsertEmbeddingSQL, id, field, pgvector.NewVector(vec)); err != nil {
			return fmt.Errorf("upserting %s embedding for doc %d: %w", field, id, wrapPgError(err))
		}
	}
	return nil
}

// UpsertEmbedding inserts or replaces the embedding for (docID, field).
func (s *Store) UpsertEmbedding(ctx context.Context, docID int64, field string, vec []float32) error {
	if _, err := s.pool.Exec(ctx, upsertEmbeddingSQL, docID, field, pgvector.NewVector(vec)); err != nil {
		return fmt.Errorf("upserting %s embedding for doc %d: %w", field, docID, wrapPgError(err))
	}
	return nil
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// ListRepresentatives returns one comparison anchor per existing group:
// the lowest-id member, with its title embedding. Ordered by document id
// ascending.
func (s *Store) ListRepresentatives(ctx context.Context) ([]Candidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (d.policy_id) d.id, d.policy_id, e.embedding
		FROM documents d
		JOIN embeddings e ON e.doc_id = d.id AND e.field = 'title'
		WHERE d.policy_id IS NOT NULL
		ORDER BY d.policy_id, d.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing representatives: %w", err)
	}
	defer rows.Close()

	var reps []Candidate
	for rows.Next() {
		var c Candidate
		var vec pgvector.Vector
		if err := rows.Scan(&c.DocID, &c.PolicyID, &vec); err != nil {
			return nil, fmt.Errorf("scanning representative: %w", err)
		}
		c.Vector = vec.Slice()
		reps = append(reps, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading representatives: %w", err)
	}

	// Deterministic iteration order for the grouping scan.
	sortCandidatesByDocID(reps)
	return reps, nil
}

// ListUngrouped returns up to limit documents with policy_id IS NULL and
// id greater than afterID, ordered by id ascending. Documents without a
// title embedding come back with a nil Vector.
func (s *Store) ListUngrouped(ctx context.Context, afterID int64, limit int) ([]UngroupedDoc, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, e.embedding
		FROM documents d
		LEFT JOIN embeddings e ON e.doc_id = d.id AND e.field = 'title'
		WHERE d.policy_id IS NULL AND d.id > $1
		ORDER BY d.id ASC
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing ungrouped documents: %w", err)
	}
	defer rows.Close()

	var docs []UngroupedDoc
	for rows.Next() {
		var doc UngroupedDoc
		var vec *pgvector.Vector
		if err := rows.Scan(&doc.DocID, &vec); err != nil {
			return nil, fmt.Errorf("scanning ungrouped document: %w", err)
		}
		if vec != nil {
			doc.Vector = vec.Slice()
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading ungrouped documents: %w", err)
	}
	return docs, nil
}

// AssignPolicyIDs persists one batch of grouping decisions in a single
// transaction. On failure the whole batch rolls back and the caller
// receives a *PersistenceError; nothing in this batch is applied.
func (s *Store) AssignPolicyIDs(ctx context.Context, assignments []Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(`UPDATE documents SET policy_id = $1, updated_at = now() WHERE id = $2`,
			a.PolicyID, a.DocID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("updating policy ids: %w", wrapPgError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing assignments: %w", err)
	}
	return nil
}

// ResetPolicyIDs clears every grouping assignment.
func (s *Store) ResetPolicyIDs(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE documents SET policy_id = NULL, updated_at = now() WHERE policy_id IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("resetting policy ids: %w", err)
	}
	return tag.RowsAffected(), nil
}

func sortCandidatesByDocID(cs []Candidate) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].DocID < cs[j].DocID })
}
