// Package retrieval embeds user queries and searches stored field
// embeddings for the nearest policy documents. Its formatted output
// grounds the conversational agent's answers.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// NoResultsMessage is the sentinel returned to the model when the
// search matches nothing. An empty corpus is a valid business outcome,
// not an error.
const NoResultsMessage = "검색 결과가 없습니다."

// Result is one scored document summary.
type Result struct {
	DocID        int64
	Title        string
	Requirements string
	Benefits     string
	Region       string
	URL          string
	Score        float64
}

// Results is the outcome of one retrieval call. A zero value means no
// match; callers check Empty instead of testing for nil.
type Results struct {
	Items []Result
}

// Empty reports whether the search matched nothing.
func (r Results) Empty() bool { return len(r.Items) == 0 }

// QueryEmbedder embeds a query string. *embedding.Service satisfies this.
type QueryEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// SearchStore runs the nearest-neighbor search. *Store satisfies this.
type SearchStore interface {
	Search(ctx context.Context, vec []float32, limit int) ([]Result, error)
}

// Retriever answers free-text queries with ranked document summaries.
type Retriever struct {
	store    SearchStore
	embedder QueryEmbedder
	topK     int
	logger   *slog.Logger
}

// NewRetriever creates a Retriever returning at most topK results.
func NewRetriever(store SearchStore, embedder QueryEmbedder, topK int, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	if topK <= 0 {
		topK = 7
	}
	return &Retriever{store: store, embedder: embedder, topK: topK, logger: logger}
}

// Retrieve embeds the query and returns the topK most similar
// documents, scores rounded to 4 decimals. An empty result set is a
// valid outcome, never an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) (Results, error) {
	vec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return Results{}, fmt.Errorf("embedding query: %w", err)
	}

	items, err := r.store.Search(ctx, vec, r.topK)
	if err != nil {
		return Results{}, fmt.Errorf("searching embeddings: %w", err)
	}

	for i := range items {
		items[i].Score = math.Round(items[i].Score*1e4) / 1e4
	}
	r.logger.Debug("retrieval complete", "query_len", len(query), "results", len(items))
	return Results{Items: items}, nil
}

// previewLen bounds the content preview in formatted output.
const previewLen = 200

// Format renders results for the model prompt, one block per document
// with rank, score, title, region, truncated content and source URL.
// Empty results render the no-results sentinel.
func Format(res Results) string {
	if res.Empty() {
		return NoResultsMessage
	}

	var b strings.Builder
	for i, item := range res.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		content := fmt.Sprintf("%s\n요건: %s\n혜택: %s", item.Title, item.Requirements, item.Benefits)
		fmt.Fprintf(&b, "[문서 %d | 점수: %.4f]\n제목: %s\n지역: %s\n내용: %s...\nURL: %s\n",
			i+1, item.Score, item.Title, item.Region, preview(content), item.URL)
	}
	return b.String()
}

// preview flattens newlines and truncates to previewLen runes so
// multibyte text never splits mid-character.
func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > previewLen {
		runes = runes[:previewLen]
	}
	return string(runes)
}
