package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/core/ports"
	"github.com/vendorlens/vendorlens/internal/export"
	"github.com/vendorlens/vendorlens/internal/profile"
)

// JobUseCase implements the job/results API surface.
type JobUseCase struct {
	repo     ports.JobRepository
	fields   ports.ExtractionStore
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	registry *profile.Registry
}

func NewJobUseCase(
	repo ports.JobRepository,
	fields ports.ExtractionStore,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	registry *profile.Registry,
) *JobUseCase {
	return &JobUseCase{
		repo:     repo,
		fields:   fields,
		storage:  storage,
		queue:    queue,
		registry: registry,
	}
}

func (uc *JobUseCase) CreateJob(ctx context.Context, workspaceID string, mode domain.DomainMode, forcedDomain string) (*domain.Job, error) {
	if mode == "" {
		mode = domain.DomainModeAuto
	}
	if mode != domain.DomainModeAuto && mode != domain.DomainModeForced {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create job", fmt.Errorf("unknown domain mode %q", mode))
	}
	if mode == domain.DomainModeForced {
		if _, err := uc.registry.Active(forcedDomain); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "create job", err)
		}
	} else {
		forcedDomain = ""
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Status:      domain.JobCreated,
		DomainMode:  mode,
		Domain:      forcedDomain,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job record: %w", err)
	}
	return job, nil
}

func (uc *JobUseCase) UploadDocument(ctx context.Context, jobID, filename string, body io.Reader) (*domain.Document, error) {
	job, err := uc.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobCreated && job.Status != domain.JobUploaded {
		return nil, domain.WrapError(domain.ErrInvalidTransition, "upload document",
			fmt.Errorf("job %s is %s, uploads are closed", jobID, job.Status))
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("empty file"))
	}
	hash := sha256.Sum256(raw)

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:               id,
		JobID:            jobID,
		Filename:         filename,
		ContentHash:      hex.EncodeToString(hash[:]),
		StoragePath:      storageKey,
		ExtractionStatus: domain.ExtractionPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if job.Status == domain.JobCreated {
		err := uc.repo.Transition(ctx, jobID, domain.JobCreated, domain.JobUploaded, "")
		if err != nil && !domain.IsKind(err, domain.ErrInvalidTransition) {
			return nil, fmt.Errorf("mark job uploaded: %w", err)
		}
	}
	return doc, nil
}

func (uc *JobUseCase) TriggerProcessing(ctx context.Context, jobID string) error {
	job, err := uc.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return domain.WrapError(domain.ErrInvalidTransition, "trigger processing",
			fmt.Errorf("job %s already %s", jobID, job.Status))
	}
	if job.Status == domain.JobCreated {
		return domain.WrapError(domain.ErrInvalidInput, "trigger processing",
			errors.New("job has no uploaded documents"))
	}
	if err := uc.queue.PublishJobProcess(ctx, jobID); err != nil {
		return fmt.Errorf("publish job process event: %w", err)
	}
	return nil
}

// CancelJob marks the job cancelled. The cancellation is cooperative: an
// in-flight stage finishes but its transition CAS then fails, so no
// further stage runs.
func (uc *JobUseCase) CancelJob(ctx context.Context, jobID string) error {
	job, err := uc.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return domain.WrapError(domain.ErrInvalidTransition, "cancel job",
			fmt.Errorf("job %s already %s", jobID, job.Status))
	}
	return uc.repo.Transition(ctx, jobID, job.Status, domain.JobCancelled, "cancelled by user")
}

func (uc *JobUseCase) GetStatus(ctx context.Context, jobID string) (*ports.JobStatusView, error) {
	job, err := uc.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	docs, err := uc.repo.ListDocuments(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &ports.JobStatusView{Job: job, Documents: docs}, nil
}

// GetResults returns the comparison dataset, or an empty-shaped dataset
// when aggregation has not run yet. Never nil.
func (uc *JobUseCase) GetResults(ctx context.Context, jobID string) (*domain.ComparisonDataset, error) {
	if _, err := uc.repo.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	dataset, err := uc.fields.GetComparison(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if dataset == nil {
		return domain.EmptyComparisonDataset(), nil
	}
	return dataset, nil
}

func (uc *JobUseCase) Export(ctx context.Context, jobID, rawFormat string) (*domain.ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "export results", err)
	}
	dataset, err := uc.GetResults(ctx, jobID)
	if err != nil {
		return nil, err
	}

	payload, err := export.Render(format, dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}

	filename := fmt.Sprintf("comparison_%s.%s", jobID, format.Extension())
	storageKey := "exports/" + filename
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("store export artifact: %w", err)
	}
	return &domain.ExportFile{
		StorageKey:  storageKey,
		Filename:    filename,
		ContentType: format.ContentType(),
	}, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.pdf"
	}
	return base
}
