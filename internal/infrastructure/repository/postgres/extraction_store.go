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

// ExtractionStore keeps normalized fields per document and the built
// comparison dataset per job, both as JSONB documents.
type ExtractionStore struct {
	db *sql.DB
}

func NewExtractionStore(db *sql.DB) *ExtractionStore {
	return &ExtractionStore{db: db}
}

func (s *ExtractionStore) SaveFields(ctx context.Context, documentID string, fields []domain.NormalizedField) error {
	if fields == nil {
		fields = []domain.NormalizedField{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO normalized_fields (document_id, fields, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (document_id) DO UPDATE
SET fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at
`, documentID, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save fields: %w", err)
	}
	return nil
}

func (s *ExtractionStore) ListFieldsByJob(ctx context.Context, jobID string) (map[string][]domain.NormalizedField, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT f.document_id, f.fields
FROM normalized_fields f
JOIN documents d ON d.id = f.document_id
WHERE d.job_id = $1
`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.NormalizedField)
	for rows.Next() {
		var documentID string
		var payload []byte
		if err := rows.Scan(&documentID, &payload); err != nil {
			return nil, fmt.Errorf("scan fields row: %w", err)
		}
		var fields []domain.NormalizedField
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields for %s: %w", documentID, err)
		}
		result[documentID] = fields
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fields: %w", err)
	}
	return result, nil
}

func (s *ExtractionStore) SaveComparison(ctx context.Context, jobID string, dataset *domain.ComparisonDataset) error {
	payload, err := json.Marshal(dataset)
	if err != nil {
		return fmt.Errorf("marshal comparison dataset: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO comparisons (job_id, dataset, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (job_id) DO UPDATE
SET dataset = EXCLUDED.dataset, updated_at = EXCLUDED.updated_at
`, jobID, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save comparison dataset: %w", err)
	}
	return nil
}

// GetComparison returns nil (not an error) when no dataset has been built
// for the job yet.
func (s *ExtractionStore) GetComparison(ctx context.Context, jobID string) (*domain.ComparisonDataset, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT dataset
FROM comparisons
WHERE job_id = $1
`, jobID)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan comparison dataset: %w", err)
	}

	var dataset domain.ComparisonDataset
	if err := json.Unmarshal(payload, &dataset); err != nil {
		return nil, fmt.Errorf("unmarshal comparison dataset: %w", err)
	}
	return &dataset, nil
}
