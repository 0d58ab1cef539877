package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/healthnav/healthnav/internal/embedding"
)

// FieldEmbedder produces one embedding vector per named document field.
// *embedding.Service satisfies this.
type FieldEmbedder interface {
	EmbedField(ctx context.Context, field, text string) ([]float32, error)
}

// UploadStore is the persistence surface the uploader needs.
// *Store satisfies this.
type UploadStore interface {
	Truncate(ctx context.Context) error
	InsertBatch(ctx context.Context, docs []NewDocument) error
}

// UploadOptions configures one upload run.
type UploadOptions struct {
	// Reset truncates documents and embeddings before uploading.
	Reset bool
	// BatchSize bounds each insert transaction.
	BatchSize int
}

// Uploader turns crawler records into document rows plus field
// embeddings, committing in fixed-size batches so partial progress is
// durable.
type Uploader struct {
	store    UploadStore
	embedder FieldEmbedder
	logger   *slog.Logger
}

// NewUploader creates an Uploader.
func NewUploader(store UploadStore, embedder FieldEmbedder, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{store: store, embedder: embedder, logger: logger}
}

// Upload inserts the given records. An empty input returns immediately
// with an empty summary and no database writes.
//
// Per record, the title is normalized before embedding and the title,
// requirements and benefits fields are embedded individually. A failed
// or empty field embedding skips that field only; the document row is
// still inserted. A failed batch commit stops the run with a
// *PersistenceError; batches committed before it stand.
func (u *Uploader) Upload(ctx context.Context, records []SourceRecord, opts UploadOptions) (*UploadSummary, error) {
	start := time.Now()
	summary := &UploadSummary{}

	if len(records) == 0 {
		u.logger.Info("no records to upload")
		summary.Elapsed = time.Since(start)
		return summary, nil
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}

	if opts.Reset {
		if err := u.store.Truncate(ctx); err != nil {
			return nil, fmt.Errorf("resetting tables: %w", err)
		}
		u.logger.Info("documents and embeddings truncated")
	}

	batch := make([]NewDocument, 0, opts.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := u.store.InsertBatch(ctx, batch); err != nil {
			return &PersistenceError{Batch: summary.Batches + 1, Err: err}
		}
		summary.Inserted += len(batch)
		summary.Batches++
		u.logger.Debug("batch committed", "batch", summary.Batches, "documents", len(batch))
		batch = batch[:0]
		return nil
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = time.Since(start)
			return summary, fmt.Errorf("upload interrupted: %w", err)
		}

		batch = append(batch, u.prepare(ctx, rec, summary))
		if len(batch) == opts.BatchSize {
			if err := flush(); err != nil {
				summary.Elapsed = time.Since(start)
				return summary, err
			}
		}
	}
	if err := flush(); err != nil {
		summary.Elapsed = time.Since(start)
		return summary, err
	}

	summary.Elapsed = time.Since(start)
	u.logger.Info("upload finished",
		"inserted", summary.Inserted,
		"skipped_fields", summary.SkippedFields,
		"batches", summary.Batches,
		"elapsed", summary.Elapsed)
	return summary, nil
}

// prepare builds the insertable document for one record, embedding each
// field and dropping the ones that fail or are empty.
func (u *Uploader) prepare(ctx context.Context, rec SourceRecord, summary *UploadSummary) NewDocument {
	sitename := SitenameFromURL(rec.SourceURL)
	doc := NewDocument{
		Title:        rec.Title,
		Requirements: rec.Requirements,
		Benefits:     rec.Benefits,
		RawText:      rec.RawText,
		URL:          rec.SourceURL,
		Region:       rec.Region,
		Sitename:     sitename,
		Weight:       WeightFor(rec.Region, sitename),
		Vectors:      make(map[string][]float32, 3),
	}

	fields := []struct {
		name string
		text string
	}{
		{FieldTitle, NormalizeTitle(rec.Title)},
		{FieldRequirements, rec.Requirements},
		{FieldBenefits, rec.Benefits},
	}
	for _, f := range fields {
		vec, err := u.embedder.EmbedField(ctx, f.name, f.text)
		if err != nil {
			if !errors.Is(err, embedding.ErrEmptyText) {
				summary.SkippedFields++
				u.logger.Warn("skipping field embedding",
					"title", rec.Title, "field", f.name, "error", err)
			}
			continue
		}
		doc.Vectors[f.name] = vec
	}
	return doc
}
