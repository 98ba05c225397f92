package ports

import (
	"context"
	"io"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/profile"
)

// JobRepository persists jobs, their documents and classifications.
type JobRepository interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	// Transition advances a job from one status to another as a single
	// compare-and-swap; a stale `from` returns ErrInvalidTransition.
	Transition(ctx context.Context, id string, from, to domain.JobStatus, errMessage string) error
	UpdateMetrics(ctx context.Context, id string, metrics domain.JobMetrics) error
	SetDomain(ctx context.Context, id, domainName string, profileVersion int) error

	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, jobID string) ([]domain.Document, error)
	UpdateDocumentParse(ctx context.Context, id string, pageCount int, quality float64) error
	UpdateDocumentExtraction(ctx context.Context, id string, status domain.ExtractionStatus, errMessage string) error

	SaveClassification(ctx context.Context, cls domain.DomainClassification) error
	GetClassification(ctx context.Context, documentID string) (*domain.DomainClassification, error)
}

// ExtractionStore persists normalized fields and the comparison dataset.
type ExtractionStore interface {
	SaveFields(ctx context.Context, documentID string, fields []domain.NormalizedField) error
	ListFieldsByJob(ctx context.Context, jobID string) (map[string][]domain.NormalizedField, error)
	SaveComparison(ctx context.Context, jobID string, dataset *domain.ComparisonDataset) error
	GetComparison(ctx context.Context, jobID string) (*domain.ComparisonDataset, error)
}

// SynonymStore persists the append-only synonym map version log and
// proposals. SaveNewVersion inserts the new version and deactivates the
// previous active one atomically.
type SynonymStore interface {
	ActiveMap(ctx context.Context) (*domain.SynonymMap, error)
	GetVersion(ctx context.Context, version int) (*domain.SynonymMap, error)
	SaveNewVersion(ctx context.Context, m *domain.SynonymMap) error
	CreateProposal(ctx context.Context, proposal *domain.ProposedSynonym) error
	ListProposals(ctx context.Context, status domain.ProposalStatus) ([]domain.ProposedSynonym, error)
	MarkProposalApproved(ctx context.Context, labelRaw string) error
}

// ObjectStorage stores uploaded documents and export artifacts.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes job processing events.
type MessageQueue interface {
	PublishJobProcess(ctx context.Context, jobID string) error
	SubscribeJobProcess(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentParser returns OCR text blocks and tables for a stored document.
// Implementations degrade to a single failure text block instead of
// returning an error for unreadable input.
type DocumentParser interface {
	Parse(ctx context.Context, doc *domain.Document) (*domain.ParseResult, error)
}

// SemanticExtractor proposes candidates from document text using the
// active domain profile. A failed or malformed response yields an empty
// candidate set, never an error that would abort the pipeline.
type SemanticExtractor interface {
	Extract(ctx context.Context, p *profile.Profile, parse *domain.ParseResult) []domain.ExtractionCandidate
}
