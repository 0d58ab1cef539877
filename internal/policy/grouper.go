package policy

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// GroupStore is the persistence surface the grouper needs.
// Interfaces are defined by the consumer; *Store satisfies this.
type GroupStore interface {
	ListRepresentatives(ctx context.Context) ([]Candidate, error)
	ListUngrouped(ctx context.Context, afterID int64, limit int) ([]UngroupedDoc, error)
	AssignPolicyIDs(ctx context.Context, assignments []Assignment) error
	ResetPolicyIDs(ctx context.Context) (int64, error)
}

// GroupOptions configures one grouping run.
type GroupOptions struct {
	// Threshold is the minimum title-embedding cosine similarity for
	// two documents to share a group.
	Threshold float64
	// BatchSize bounds both the number of documents loaded per query
	// and the size of each assignment transaction.
	BatchSize int
	// Reset clears all existing policy_id values before grouping.
	Reset bool
	// DryRun computes and reports assignments without persisting.
	DryRun bool
}

// Grouper assigns policy_id values to ungrouped documents with a greedy
// single pass: each document joins the best-matching existing group at
// or above the threshold, or founds a new group identified by its own
// document id.
//
// Comparison is against group representatives plus documents already
// processed in the same run, not all members, so members of a group are
// not guaranteed pairwise similar above the threshold. That
// approximation keeps cost linear-ish over a corpus that is mostly
// grouped from prior runs.
//
// Grouper assumes exclusive write access to policy_id for the duration
// of a run. Use AcquireRunLock to keep two local runs from overlapping.
type Grouper struct {
	store  GroupStore
	logger *slog.Logger
}

// NewGrouper creates a Grouper over the given store.
func NewGrouper(store GroupStore, logger *slog.Logger) *Grouper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Grouper{store: store, logger: logger}
}

// Run executes one grouping pass and returns its summary.
//
// Assignments commit per batch. If a batch commit fails the run stops
// with a *PersistenceError wrapped in the returned error; batches
// committed before it stand, and the summary covers them. Documents
// without a title embedding are skipped, left ungrouped and picked up
// again on the next run.
func (g *Grouper) Run(ctx context.Context, opts GroupOptions) (*GroupSummary, error) {
	if opts.Threshold < -1 || opts.Threshold > 1 {
		return nil, fmt.Errorf("threshold %v outside [-1, 1]", opts.Threshold)
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}

	start := time.Now()
	summary := &GroupSummary{}

	if opts.Reset {
		if opts.DryRun {
			g.logger.Info("dry run: skipping reset of existing groups")
		} else {
			cleared, err := g.store.ResetPolicyIDs(ctx)
			if err != nil {
				return nil, fmt.Errorf("resetting groups: %w", err)
			}
			g.logger.Info("cleared existing group assignments", "documents", cleared)
		}
	}

	candidates, err := g.store.ListRepresentatives(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading representatives: %w", err)
	}
	g.logger.Info("grouping run started",
		"threshold", opts.Threshold,
		"batch_size", opts.BatchSize,
		"existing_groups", len(candidates),
		"dry_run", opts.DryRun)

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = time.Since(start)
			return summary, fmt.Errorf("grouping interrupted: %w", err)
		}

		batch, err := g.store.ListUngrouped(ctx, afterID, opts.BatchSize)
		if err != nil {
			summary.Elapsed = time.Since(start)
			return summary, fmt.Errorf("loading batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].DocID

		var assignments []Assignment
		assignments, candidates = g.groupBatch(batch, candidates, opts.Threshold, summary)

		if !opts.DryRun {
			if err := g.store.AssignPolicyIDs(ctx, assignments); err != nil {
				summary.Elapsed = time.Since(start)
				return summary, &PersistenceError{Batch: summary.Batches + 1, Err: err}
			}
		}
		summary.Batches++
		g.logger.Debug("batch committed",
			"batch", summary.Batches,
			"assignments", len(assignments))

		if len(batch) < opts.BatchSize {
			break
		}
	}

	summary.Elapsed = time.Since(start)
	g.logger.Info("grouping run finished",
		"processed", summary.Processed,
		"new_groups", summary.NewGroups,
		"merged", summary.Merged,
		"skipped", summary.Skipped,
		"batches", summary.Batches,
		"elapsed", summary.Elapsed)
	return summary, nil
}

// groupBatch decides an assignment for every document in the batch that
// has a title embedding, and returns the candidate list extended with
// those documents. Each assigned document joins the candidates before
// the next one is scored, so two near-duplicates arriving in the same
// batch end up in the same group. Equal scores resolve to the candidate
// with the lowest doc id regardless of candidate order, keeping output
// deterministic for a given database state.
func (g *Grouper) groupBatch(batch []UngroupedDoc, candidates []Candidate, threshold float64, summary *GroupSummary) ([]Assignment, []Candidate) {
	assignments := make([]Assignment, 0, len(batch))

	for _, doc := range batch {
		if doc.Vector == nil {
			summary.Skipped++
			g.logger.Warn("skipping document without title embedding", "doc_id", doc.DocID)
			continue
		}
		summary.Processed++

		bestScore := -2.0
		var bestPolicy, bestDoc int64
		for _, c := range candidates {
			score := Cosine(doc.Vector, c.Vector)
			if score > bestScore || (score == bestScore && c.DocID < bestDoc) {
				bestScore = score
				bestPolicy = c.PolicyID
				bestDoc = c.DocID
			}
		}

		// Founding member: its own id becomes the group id.
		policyID := doc.DocID
		if bestScore >= threshold {
			policyID = bestPolicy
			summary.Merged++
		} else {
			summary.NewGroups++
		}
		assignments = append(assignments, Assignment{DocID: doc.DocID, PolicyID: policyID})
		candidates = append(candidates, Candidate{DocID: doc.DocID, PolicyID: policyID, Vector: doc.Vector})
	}
	return assignments, candidates
}
