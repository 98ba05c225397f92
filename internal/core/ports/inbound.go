package ports

import (
	"context"
	"io"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

// JobStatusView is the status query payload: the job plus its documents.
type JobStatusView struct {
	Job       *domain.Job       `json:"job"`
	Documents []domain.Document `json:"documents"`
}

// JobService is the inbound contract for the job/results API surface.
type JobService interface {
	CreateJob(ctx context.Context, workspaceID string, mode domain.DomainMode, forcedDomain string) (*domain.Job, error)
	UploadDocument(ctx context.Context, jobID, filename string, body io.Reader) (*domain.Document, error)
	TriggerProcessing(ctx context.Context, jobID string) error
	CancelJob(ctx context.Context, jobID string) error
	GetStatus(ctx context.Context, jobID string) (*JobStatusView, error)
	GetResults(ctx context.Context, jobID string) (*domain.ComparisonDataset, error)
	Export(ctx context.Context, jobID, format string) (*domain.ExportFile, error)
}

// JobProcessor is the inbound contract for asynchronous pipeline runs.
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// SynonymService manages the propose/approve canonicalization workflow.
type SynonymService interface {
	Propose(ctx context.Context, labelRaw, sourceContext string, confidence float64) (*domain.ProposedSynonym, error)
	Approve(ctx context.Context, labelRaw, canonicalMetricID, metricLabel string, synonyms []string, optimality domain.Optimality) (*domain.SynonymMap, error)
}
