package domain

import "time"

type JobStatus string

const (
	JobCreated    JobStatus = "created"
	JobUploaded   JobStatus = "uploaded"
	JobClassified JobStatus = "classified"
	JobParsed     JobStatus = "parsed"
	JobExtracted  JobStatus = "extracted"
	JobNormalized JobStatus = "normalized"
	JobBuilt      JobStatus = "built"
	JobReady      JobStatus = "ready"

	JobFailed         JobStatus = "failed"
	JobReadyPartial   JobStatus = "ready_partial"
	JobFailedNoSignal JobStatus = "failed_no_signal"
	JobCancelled      JobStatus = "cancelled"
)

// IsTerminal reports whether no further stage may run for this status.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobReady, JobFailed, JobReadyPartial, JobFailedNoSignal, JobCancelled:
		return true
	default:
		return false
	}
}

type DomainMode string

const (
	DomainModeAuto   DomainMode = "auto"
	DomainModeForced DomainMode = "forced"
)

type JobMetrics struct {
	LatencyMs    int64   `json:"latency_ms"`
	PagesTotal   int     `json:"pages_total"`
	OCRPages     int     `json:"ocr_pages"`
	CostEstimate float64 `json:"cost_estimate"`
}

type Job struct {
	ID             string     `json:"id"`
	WorkspaceID    string     `json:"workspace_id,omitempty"`
	Status         JobStatus  `json:"status"`
	DomainMode     DomainMode `json:"domain_mode"`
	Domain         string     `json:"domain,omitempty"`
	ProfileVersion int        `json:"profile_version,omitempty"`
	Metrics        JobMetrics `json:"metrics"`
	Error          string     `json:"error,omitempty"`
	// Version counts applied status transitions; transitions are
	// compare-and-swap on (id, status) so only one writer advances a job.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
