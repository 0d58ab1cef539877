package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// searchSQL ranks stored field embeddings by cosine distance to the
// query vector. The secondary sort on document id keeps equal-distance
// results in a stable order.
const searchSQL = `
	SELECT d.id, d.title, COALESCE(d.requirements, ''), COALESCE(d.benefits, ''),
	       COALESCE(d.region, ''), COALESCE(d.url, ''),
	       1 - (e.embedding <=> $1) AS similarity
	FROM documents d
	JOIN embeddings e ON d.id = e.doc_id
	ORDER BY e.embedding <=> $1, d.id ASC
	LIMIT $2`

// Store runs vector searches and corpus statistics against PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines. Searches are
// read-only and may run concurrently with upload and grouping; a
// grouping run mid-flight is invisible here because the search never
// filters on policy_id.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store over the given pool.
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Search returns up to limit documents nearest to vec, most similar
// first.
func (s *Store) Search(ctx context.Context, vec []float32, limit int) ([]Result, error) {
	rows, err := s.pool.Query(ctx, searchSQL, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.DocID, &r.Title, &r.Requirements, &r.Benefits,
			&r.Region, &r.URL, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	return results, nil
}

// CountEmbeddings returns the number of stored embedding rows. The chat
// command refuses to start against an empty vector store.
func (s *Store) CountEmbeddings(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// RegionCount is one row of the per-region document distribution.
type RegionCount struct {
	Region string
	Count  int64
}

// DocInfo is a brief document reference for the corpus summary.
type DocInfo struct {
	Title  string
	Region string
	URL    string
}

// CorpusSummary describes the loaded corpus, shown at chat startup and
// after a conversation reset.
type CorpusSummary struct {
	TotalDocs int64
	Regions   []RegionCount
	Recent    []DocInfo
}

// Summarize builds the corpus summary: total count, per-region
// distribution and the three most recent documents.
func (s *Store) Summarize(ctx context.Context) (*CorpusSummary, error) {
	sum := &CorpusSummary{}

	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&sum.TotalDocs); err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(region, '미지정'), count(*)
		FROM documents
		GROUP BY region
		ORDER BY count(*) DESC, region ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying region distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rc RegionCount
		if err := rows.Scan(&rc.Region, &rc.Count); err != nil {
			return nil, fmt.Errorf("scanning region count: %w", err)
		}
		sum.Regions = append(sum.Regions, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading region distribution: %w", err)
	}

	recent, err := s.pool.Query(ctx, `
		SELECT title, COALESCE(region, ''), COALESCE(url, '')
		FROM documents
		ORDER BY id DESC
		LIMIT 3`)
	if err != nil {
		return nil, fmt.Errorf("querying recent documents: %w", err)
	}
	defer recent.Close()
	for recent.Next() {
		var d DocInfo
		if err := recent.Scan(&d.Title, &d.Region, &d.URL); err != nil {
			return nil, fmt.Errorf("scanning recent document: %w", err)
		}
		sum.Recent = append(sum.Recent, d)
	}
	if err := recent.Err(); err != nil {
		return nil, fmt.Errorf("reading recent documents: %w", err)
	}

	return sum, nil
}
