// Package policy implements the document upload pipeline and the policy
// grouping batch job. Grouping assigns a shared policy_id to documents
// whose title embeddings are mutually similar above a threshold, so that
// the same benefit announced by multiple sites collapses into one group.
package policy

import "time"

// Embedding field names. These match the CHECK constraint on the
// embeddings table.
const (
	FieldTitle        = "title"
	FieldRequirements = "requirements"
	FieldBenefits     = "benefits"
)

// Document is one crawled health-support record as stored in the
// documents table. PolicyID is nil until a grouping run assigns one.
type Document struct {
	ID                   int64
	Title                string
	Requirements         string
	Benefits             string
	RawText              string
	URL                  string
	PolicyID             *int64
	Region               string
	Sitename             string
	Weight               int
	LLMReinforced        bool
	LLMReinforcedSources []byte // raw JSONB, nil when absent
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SourceRecord is the normalized crawler output accepted by the
// uploader. Requirements and Benefits correspond to the crawled
// support-target and support-content fields.
type SourceRecord struct {
	Title        string
	Requirements string
	Benefits     string
	RawText      string
	SourceURL    string
	Region       string
}

// NewDocument is a document prepared for insertion, with the embedding
// vectors that were successfully computed. Fields whose embedding call
// failed or whose text was empty are absent from Vectors.
type NewDocument struct {
	Title        string
	Requirements string
	Benefits     string
	RawText      string
	URL          string
	Region       string
	Sitename     string
	Weight       int
	Vectors      map[string][]float32
}

// Candidate is a grouping comparison anchor: either the representative
// (lowest-id member) of an existing group, or a document already
// processed earlier in the current run.
type Candidate struct {
	DocID    int64
	PolicyID int64
	Vector   []float32
}

// UngroupedDoc is a document awaiting grouping. Vector is nil when the
// title embedding is missing; such documents are skipped and retried on
// the next run.
type UngroupedDoc struct {
	DocID  int64
	Vector []float32
}

// Assignment records one grouping decision to persist.
type Assignment struct {
	DocID    int64
	PolicyID int64
}

// GroupSummary reports the outcome of one grouping run.
type GroupSummary struct {
	Processed int
	NewGroups int
	Merged    int
	Skipped   int
	Batches   int
	Elapsed   time.Duration
}

// UploadSummary reports the outcome of one upload run.
type UploadSummary struct {
	Inserted      int
	SkippedFields int
	Batches       int
	Elapsed       time.Duration
}
