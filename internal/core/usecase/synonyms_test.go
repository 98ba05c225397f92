package usecase

import (
	"context"
	"testing"

	"github.com/vendorlens/vendorlens/internal/canonical"
	"github.com/vendorlens/vendorlens/internal/core/domain"
)

func TestProposeSynonym(t *testing.T) {
	store := newFakeSynonymStore(canonical.Seed())
	uc := NewSynonymUseCase(store)

	proposal, err := uc.Propose(context.Background(), "quantum flux rating", "Spec sheet page 3", 0.8)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if proposal.ID == "" || proposal.Status != domain.ProposalProposed {
		t.Fatalf("unexpected proposal %+v", proposal)
	}
	if len(store.proposals) != 1 {
		t.Fatalf("proposal not persisted: %v", store.proposals)
	}
}

func TestProposeRejectsEmptyLabel(t *testing.T) {
	uc := NewSynonymUseCase(newFakeSynonymStore(canonical.Seed()))

	if _, err := uc.Propose(context.Background(), "", "", 0.9); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestProposeRejectsResolvableLabel(t *testing.T) {
	uc := NewSynonymUseCase(newFakeSynonymStore(canonical.Seed()))

	// "uptime" is a seed synonym of SLA_UPTIME.
	if _, err := uc.Propose(context.Background(), "uptime", "", 0.9); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for already-mapped label, got %v", err)
	}
}

func TestApproveAppendsNewVersion(t *testing.T) {
	store := newFakeSynonymStore(canonical.Seed())
	uc := NewSynonymUseCase(store)
	ctx := context.Background()

	if _, err := uc.Propose(ctx, "quantum flux rating", "", 0.8); err != nil {
		t.Fatalf("propose: %v", err)
	}

	next, err := uc.Approve(ctx, "quantum flux rating", "QUANTUM_FLUX", "quantum_flux", []string{"flux rating"}, domain.OptimalityMax)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if next.Version != 2 {
		t.Fatalf("expected version 2, got %d", next.Version)
	}

	entry := next.Entries[len(next.Entries)-1]
	if entry.CanonicalMetricID != "QUANTUM_FLUX" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	found := false
	for _, syn := range entry.Synonyms {
		if syn == "quantum flux rating" {
			found = true
		}
	}
	if !found {
		t.Fatalf("raw label must be folded into the synonyms: %v", entry.Synonyms)
	}

	// The raw label now resolves against the new active map.
	if resolved, ok := canonical.Resolve(next, "quantum flux rating"); !ok || resolved.CanonicalMetricID != "QUANTUM_FLUX" {
		t.Fatalf("approved label must resolve, got %+v ok=%v", resolved, ok)
	}

	if len(store.approved) != 1 || store.approved[0] != "quantum flux rating" {
		t.Fatalf("proposal not marked approved: %v", store.approved)
	}
	proposals, _ := store.ListProposals(ctx, domain.ProposalApproved)
	if len(proposals) != 1 {
		t.Fatalf("expected one approved proposal, got %v", proposals)
	}
}

func TestApproveDefaultsMetricLabel(t *testing.T) {
	store := newFakeSynonymStore(canonical.Seed())
	uc := NewSynonymUseCase(store)

	next, err := uc.Approve(context.Background(), "burst size", "BURST_SIZE", "", nil, domain.OptimalityNone)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	entry := next.Entries[len(next.Entries)-1]
	if entry.MetricLabel != "burst size" {
		t.Fatalf("metric label must default to the raw label, got %q", entry.MetricLabel)
	}
}

func TestApproveRequiresIdentifiers(t *testing.T) {
	uc := NewSynonymUseCase(newFakeSynonymStore(canonical.Seed()))

	if _, err := uc.Approve(context.Background(), "", "X", "", nil, domain.OptimalityNone); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.Approve(context.Background(), "x", "", "", nil, domain.OptimalityNone); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
