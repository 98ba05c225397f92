package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	metricsJSON, err := json.Marshal(job.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO jobs (
	id, workspace_id, status, domain_mode, domain, profile_version, metrics, error_message, version, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		job.ID, job.WorkspaceID, string(job.Status), string(job.DomainMode), job.Domain,
		job.ProfileVersion, metricsJSON, job.Error, job.Version, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, workspace_id, status, domain_mode, domain, profile_version, metrics, error_message, version, created_at, updated_at
FROM jobs
WHERE id = $1
`, id)

	var job domain.Job
	var status, mode string
	var metricsRaw []byte

	err := row.Scan(
		&job.ID, &job.WorkspaceID, &status, &mode, &job.Domain, &job.ProfileVersion,
		&metricsRaw, &job.Error, &job.Version, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if err := json.Unmarshal(metricsRaw, &job.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	job.Status = domain.JobStatus(status)
	job.DomainMode = domain.DomainMode(mode)
	return &job, nil
}

// Transition advances the job status as a compare-and-swap on the current
// status. Zero rows updated means another writer already moved the job.
func (r *JobRepository) Transition(ctx context.Context, id string, from, to domain.JobStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE jobs
SET status = $3, error_message = $4, version = version + 1, updated_at = $5
WHERE id = $1 AND status = $2
`, id, string(from), string(to), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("transition job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrInvalidTransition, "transition job",
			fmt.Errorf("job %s is not %s", id, from))
	}
	return nil
}

func (r *JobRepository) UpdateMetrics(ctx context.Context, id string, metrics domain.JobMetrics) error {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
UPDATE jobs
SET metrics = $2, updated_at = $3
WHERE id = $1
`, id, metricsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job metrics: %w", err)
	}
	return nil
}

func (r *JobRepository) SetDomain(ctx context.Context, id, domainName string, profileVersion int) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE jobs
SET domain = $2, profile_version = $3, updated_at = $4
WHERE id = $1
`, id, domainName, profileVersion, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set job domain: %w", err)
	}
	return nil
}

func (r *JobRepository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, job_id, filename, content_hash, storage_path, page_count, quality_score, extraction_status, extraction_error, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		doc.ID, doc.JobID, doc.Filename, doc.ContentHash, doc.StoragePath,
		doc.PageCount, doc.QualityScore, string(doc.ExtractionStatus), doc.ExtractionError,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *JobRepository) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, job_id, filename, content_hash, storage_path, page_count, quality_score, extraction_status, extraction_error, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, err
	}
	return doc, nil
}

func (r *JobRepository) ListDocuments(ctx context.Context, jobID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, job_id, filename, content_hash, storage_path, page_count, quality_score, extraction_status, extraction_error, created_at, updated_at
FROM documents
WHERE job_id = $1
ORDER BY created_at
`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *JobRepository) UpdateDocumentParse(ctx context.Context, id string, pageCount int, quality float64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET page_count = $2, quality_score = $3, updated_at = $4
WHERE id = $1
`, id, pageCount, quality, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document parse: %w", err)
	}
	return nil
}

func (r *JobRepository) UpdateDocumentExtraction(ctx context.Context, id string, status domain.ExtractionStatus, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET extraction_status = $2, extraction_error = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document extraction: %w", err)
	}
	return nil
}

func (r *JobRepository) SaveClassification(ctx context.Context, cls domain.DomainClassification) error {
	alternativesJSON, err := json.Marshal(cls.AlternativeDomains)
	if err != nil {
		return fmt.Errorf("marshal alternatives: %w", err)
	}
	evidenceJSON, err := json.Marshal(cls.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO classifications (document_id, domain, confidence, method, alternatives, requires_confirmation, evidence)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (document_id) DO UPDATE
SET domain = EXCLUDED.domain, confidence = EXCLUDED.confidence, method = EXCLUDED.method,
	alternatives = EXCLUDED.alternatives, requires_confirmation = EXCLUDED.requires_confirmation,
	evidence = EXCLUDED.evidence
`,
		cls.DocumentID, cls.Domain, cls.Confidence, cls.Method,
		alternativesJSON, cls.RequiresConfirmation, evidenceJSON,
	)
	if err != nil {
		return fmt.Errorf("save classification: %w", err)
	}
	return nil
}

func (r *JobRepository) GetClassification(ctx context.Context, documentID string) (*domain.DomainClassification, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT document_id, domain, confidence, method, alternatives, requires_confirmation, evidence
FROM classifications
WHERE document_id = $1
`, documentID)

	var cls domain.DomainClassification
	var alternativesRaw, evidenceRaw []byte
	err := row.Scan(
		&cls.DocumentID, &cls.Domain, &cls.Confidence, &cls.Method,
		&alternativesRaw, &cls.RequiresConfirmation, &evidenceRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get classification", fmt.Errorf("document %s", documentID))
		}
		return nil, fmt.Errorf("scan classification: %w", err)
	}

	if err := json.Unmarshal(alternativesRaw, &cls.AlternativeDomains); err != nil {
		return nil, fmt.Errorf("unmarshal alternatives: %w", err)
	}
	if err := json.Unmarshal(evidenceRaw, &cls.Evidence); err != nil {
		return nil, fmt.Errorf("unmarshal evidence: %w", err)
	}
	return &cls, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	err := row.Scan(
		&doc.ID, &doc.JobID, &doc.Filename, &doc.ContentHash, &doc.StoragePath,
		&doc.PageCount, &doc.QualityScore, &status, &doc.ExtractionError,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.ExtractionStatus = domain.ExtractionStatus(status)
	return &doc, nil
}
