package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vendorlens/vendorlens/internal/canonical"
	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/core/ports"
)

// SynonymUseCase implements the propose/approve canonicalization workflow.
type SynonymUseCase struct {
	store ports.SynonymStore
}

func NewSynonymUseCase(store ports.SynonymStore) *SynonymUseCase {
	return &SynonymUseCase{store: store}
}

func (uc *SynonymUseCase) Propose(ctx context.Context, labelRaw, sourceContext string, confidence float64) (*domain.ProposedSynonym, error) {
	if labelRaw == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "propose synonym", errors.New("label_raw is required"))
	}

	active, err := uc.store.ActiveMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active synonym map: %w", err)
	}
	if entry, ok := canonical.Resolve(active, labelRaw); ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "propose synonym",
			fmt.Errorf("label %q already resolves to %s", labelRaw, entry.CanonicalMetricID))
	}

	proposal := &domain.ProposedSynonym{
		ID:         uuid.NewString(),
		LabelRaw:   labelRaw,
		Context:    sourceContext,
		Confidence: confidence,
		Status:     domain.ProposalProposed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.store.CreateProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("record proposal: %w", err)
	}
	return proposal, nil
}

// Approve folds a label into the synonym map by appending a new map
// version. The previously active version is kept verbatim, only
// deactivated, so datasets built against it stay reproducible.
func (uc *SynonymUseCase) Approve(ctx context.Context, labelRaw, canonicalMetricID, metricLabel string, synonyms []string, optimality domain.Optimality) (*domain.SynonymMap, error) {
	if labelRaw == "" || canonicalMetricID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "approve synonym",
			errors.New("label_raw and canonical_metric_id are required"))
	}
	if metricLabel == "" {
		metricLabel = labelRaw
	}

	current, err := uc.store.ActiveMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active synonym map: %w", err)
	}

	entry := domain.SynonymEntry{
		CanonicalMetricID: canonicalMetricID,
		MetricLabel:       metricLabel,
		Synonyms:          appendUnique(synonyms, labelRaw),
		Priority:          3,
		Optimality:        optimality,
	}
	next := canonical.NextVersion(current, entry)

	if err := uc.store.SaveNewVersion(ctx, next); err != nil {
		return nil, fmt.Errorf("save synonym map version %d: %w", next.Version, err)
	}
	if err := uc.store.MarkProposalApproved(ctx, labelRaw); err != nil {
		return nil, fmt.Errorf("mark proposal approved: %w", err)
	}
	return next, nil
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(append([]string(nil), values...), v)
}
