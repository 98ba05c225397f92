package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

// SynonymRepository persists the append-only synonym map version log and
// the proposal queue. Map versions are never updated in place except for
// the active flag flip when a successor lands.
type SynonymRepository struct {
	db *sql.DB
}

func NewSynonymRepository(db *sql.DB) *SynonymRepository {
	return &SynonymRepository{db: db}
}

// SeedIfEmpty installs the initial map version when the table is empty,
// so a fresh deployment resolves the shipped canonical metrics.
func (r *SynonymRepository) SeedIfEmpty(ctx context.Context, seed *domain.SynonymMap) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM synonym_maps`).Scan(&count); err != nil {
		return fmt.Errorf("count synonym maps: %w", err)
	}
	if count > 0 {
		return nil
	}
	return r.insertVersion(ctx, r.db, seed)
}

func (r *SynonymRepository) ActiveMap(ctx context.Context) (*domain.SynonymMap, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT version, active, entries, created_at
FROM synonym_maps
WHERE active = TRUE
ORDER BY version DESC
LIMIT 1
`)
	m, err := scanSynonymMap(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrVersionNotFound, "active synonym map", errors.New("no active version"))
		}
		return nil, err
	}
	return m, nil
}

func (r *SynonymRepository) GetVersion(ctx context.Context, version int) (*domain.SynonymMap, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT version, active, entries, created_at
FROM synonym_maps
WHERE version = $1
`, version)
	m, err := scanSynonymMap(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrVersionNotFound, "get synonym map", fmt.Errorf("version %d", version))
		}
		return nil, err
	}
	return m, nil
}

// SaveNewVersion inserts the successor version and deactivates the
// previous active one in a single transaction.
func (r *SynonymRepository) SaveNewVersion(ctx context.Context, m *domain.SynonymMap) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin synonym tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE synonym_maps SET active = FALSE WHERE active = TRUE`); err != nil {
		return fmt.Errorf("deactivate current map: %w", err)
	}
	if err := r.insertVersion(ctx, tx, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit synonym tx: %w", err)
	}
	return nil
}

func (r *SynonymRepository) CreateProposal(ctx context.Context, proposal *domain.ProposedSynonym) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO synonym_proposals (id, label_raw, context, suggested_metric_id, confidence, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		proposal.ID, proposal.LabelRaw, proposal.Context, proposal.SuggestedMetricID,
		proposal.Confidence, string(proposal.Status), proposal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (r *SynonymRepository) ListProposals(ctx context.Context, status domain.ProposalStatus) ([]domain.ProposedSynonym, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, label_raw, context, suggested_metric_id, confidence, status, created_at
FROM synonym_proposals
WHERE status = $1
ORDER BY created_at
`, string(status))
	if err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	defer rows.Close()

	var proposals []domain.ProposedSynonym
	for rows.Next() {
		var p domain.ProposedSynonym
		var rawStatus string
		if err := rows.Scan(&p.ID, &p.LabelRaw, &p.Context, &p.SuggestedMetricID, &p.Confidence, &rawStatus, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		p.Status = domain.ProposalStatus(rawStatus)
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return proposals, nil
}

func (r *SynonymRepository) MarkProposalApproved(ctx context.Context, labelRaw string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE synonym_proposals
SET status = $2
WHERE label_raw = $1 AND status = $3
`, labelRaw, string(domain.ProposalApproved), string(domain.ProposalProposed))
	if err != nil {
		return fmt.Errorf("mark proposal approved: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SynonymRepository) insertVersion(ctx context.Context, db execer, m *domain.SynonymMap) error {
	entriesJSON, err := json.Marshal(m.Entries)
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO synonym_maps (version, active, entries, created_at)
VALUES ($1,$2,$3,$4)
`, m.Version, m.Active, entriesJSON, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert synonym map version %d: %w", m.Version, err)
	}
	return nil
}

func scanSynonymMap(row *sql.Row) (*domain.SynonymMap, error) {
	var m domain.SynonymMap
	var entriesRaw []byte
	if err := row.Scan(&m.Version, &m.Active, &entriesRaw, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(entriesRaw, &m.Entries); err != nil {
		return nil, fmt.Errorf("unmarshal entries: %w", err)
	}
	return &m, nil
}
