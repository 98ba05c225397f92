package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/vendorlens/vendorlens/internal/canonical"
	"github.com/vendorlens/vendorlens/internal/classify"
	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/normalize"
	"github.com/vendorlens/vendorlens/internal/rules"
)

type processFixture struct {
	uc       *ProcessJobUseCase
	repo     *fakeJobRepo
	fields   *fakeExtractionStore
	synonyms *fakeSynonymStore
	parser   *fakeParser
	semantic *fakeSemantic
}

func newProcessFixture(t *testing.T, repo *fakeJobRepo) *processFixture {
	t.Helper()
	registry := usecaseRegistry(t)
	classifier, err := classify.New(registry)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	fields := newFakeExtractionStore()
	synonyms := newFakeSynonymStore(canonical.Seed())
	parser := &fakeParser{results: make(map[string]*domain.ParseResult), errs: make(map[string]error)}
	semantic := &fakeSemantic{}

	uc := NewProcessJobUseCase(
		repo, fields, synonyms, parser, semantic,
		registry, classifier, rules.NewEngine(), normalize.New(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return &processFixture{uc: uc, repo: repo, fields: fields, synonyms: synonyms, parser: parser, semantic: semantic}
}

func seedJob(repo *fakeJobRepo, mode domain.DomainMode, forcedDomain string) *domain.Job {
	now := time.Now().UTC()
	job := &domain.Job{
		ID:         "job-1",
		Status:     domain.JobUploaded,
		DomainMode: mode,
		Domain:     forcedDomain,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	repo.jobs[job.ID] = job
	return job
}

func seedDocument(repo *fakeJobRepo, id, filename string) *domain.Document {
	doc := &domain.Document{
		ID:               id,
		JobID:            "job-1",
		Filename:         filename,
		StoragePath:      id + "_" + filename,
		ExtractionStatus: domain.ExtractionPending,
	}
	repo.documents[id] = doc
	return doc
}

func datasheetParse() *domain.ParseResult {
	return &domain.ParseResult{
		Pages:   4,
		Quality: 0.85,
		TextBlocks: []domain.TextBlock{
			{Text: "Microcontroller datasheet. Electrical characteristics section.", Page: 1},
			{Text: "Supply voltage: 3.3 V typical across the operating range.", Page: 2},
			{Text: "Supply current: 1500 µA in run mode at full clock speed.", Page: 2},
		},
	}
}

func degradedParseResult() *domain.ParseResult {
	return &domain.ParseResult{
		Pages:      1,
		Quality:    0,
		TextBlocks: []domain.TextBlock{{Text: "Processing failed: unreadable scan", Page: 1}},
	}
}

func TestProcessJobFullRunReachesReady(t *testing.T) {
	repo := newFakeJobRepo()
	f := newProcessFixture(t, repo)
	ctx := context.Background()

	seedJob(repo, domain.DomainModeAuto, "")
	seedDocument(repo, "doc-a", "acme_datasheet.pdf")
	seedDocument(repo, "doc-b", "globex_datasheet.pdf")
	f.parser.results["doc-a"] = datasheetParse()
	f.parser.results["doc-b"] = datasheetParse()

	if err := f.uc.ProcessJob(ctx, "job-1"); err != nil {
		t.Fatalf("process job: %v", err)
	}

	job, _ := repo.GetJob(ctx, "job-1")
	if job.Status != domain.JobReady {
		t.Fatalf("expected ready, got %q (error %q)", job.Status, job.Error)
	}
	if job.Domain != "semiconductor" || job.ProfileVersion != 1 {
		t.Fatalf("domain not pinned: %q v%d", job.Domain, job.ProfileVersion)
	}
	if job.Metrics.PagesTotal != 8 {
		t.Fatalf("expected 8 pages counted, got %d", job.Metrics.PagesTotal)
	}
	wantCost := 8*0.002 + 2*0.01
	if math.Abs(job.Metrics.CostEstimate-wantCost) > 1e-9 {
		t.Fatalf("expected cost %v, got %v", wantCost, job.Metrics.CostEstimate)
	}

	for _, docID := range []string{"doc-a", "doc-b"} {
		doc, _ := repo.GetDocument(ctx, docID)
		if doc.ExtractionStatus != domain.ExtractionOK {
			t.Fatalf("document %s not marked ok: %q", docID, doc.ExtractionStatus)
		}
		if doc.PageCount != 4 {
			t.Fatalf("document %s page count %d", docID, doc.PageCount)
		}
		if _, ok := repo.classifications[docID]; !ok {
			t.Fatalf("document %s has no classification", docID)
		}

		fields := f.fields.fields[docID]
		if len(fields) == 0 {
			t.Fatalf("no fields saved for %s", docID)
		}
		var current *domain.NormalizedField
		for i := range fields {
			if fields[i].FieldID == "power_typical" {
				current = &fields[i]
			}
		}
		if current == nil {
			t.Fatalf("power_typical missing from %v", fields)
		}
		if v, _ := current.Value.AsNumber(); v != 1.5 || current.Unit != "mA" {
			t.Fatalf("expected 1.5 mA, got %v %s", current.Value, current.Unit)
		}
		if current.MetricID != "SUPPLY_CURRENT" {
			t.Fatalf("expected canonical SUPPLY_CURRENT, got %q", current.MetricID)
		}
	}

	dataset := f.fields.comparisons["job-1"]
	if dataset == nil {
		t.Fatal("comparison dataset not saved")
	}
	if len(dataset.Vendors) != 2 {
		t.Fatalf("expected 2 vendors, got %+v", dataset.Vendors)
	}
	if f.semantic.calls != 2 {
		t.Fatalf("expected one semantic call per document, got %d", f.semantic.calls)
	}
}

func TestProcessJobPartialFailure(t *testing.T) {
	repo := newFakeJobRepo()
	f := newProcessFixture(t, repo)
	ctx := context.Background()

	seedJob(repo, domain.DomainModeAuto, "")
	seedDocument(repo, "doc-a", "acme_datasheet.pdf")
	seedDocument(repo, "doc-b", "scan.pdf")
	f.parser.results["doc-a"] = datasheetParse()
	f.parser.results["doc-b"] = degradedParseResult()

	if err := f.uc.ProcessJob(ctx, "job-1"); err != nil {
		t.Fatalf("process job: %v", err)
	}

	job, _ := repo.GetJob(ctx, "job-1")
	if job.Status != domain.JobReadyPartial {
		t.Fatalf("expected ready_partial, got %q", job.Status)
	}

	failed, _ := repo.GetDocument(ctx, "doc-b")
	if failed.ExtractionStatus != domain.ExtractionFailed {
		t.Fatalf("degraded document not marked failed: %q", failed.ExtractionStatus)
	}
	if failed.ExtractionError == "" {
		t.Fatal("failed document must carry an error message")
	}

	dataset := f.fields.comparisons["job-1"]
	if dataset == nil || len(dataset.Vendors) != 1 {
		t.Fatalf("dataset must only include the surviving document, got %+v", dataset)
	}
}

func TestProcessJobAllDegradedFailsNoSignal(t *testing.T) {
	repo := newFakeJobRepo()
	f := newProcessFixture(t, repo)
	ctx := context.Background()

	seedJob(repo, domain.DomainModeAuto, "")
	seedDocument(repo, "doc-a", "scan_a.pdf")
	f.parser.results["doc-a"] = degradedParseResult()

	if err := f.uc.ProcessJob(ctx, "job-1"); err != nil {
		t.Fatalf("process job: %v", err)
	}

	job, _ := repo.GetJob(ctx, "job-1")
	if job.Status != domain.JobFailedNoSignal {
		t.Fatalf("expected failed_no_signal, got %q", job.Status)
	}
}

func TestProcessJobForcedDomainSkipsClassification(t *testing.T) {
	repo := newFakeJobRepo()
	f := newProcessFixture(t, repo)
	ctx := context.Background()

	seedJob(repo, domain.DomainModeForced, "semiconductor")
	seedDocument(repo, "doc-a", "unrelated_name.pdf")
	// Text alone would classify as software_b2b.
	f.parser.results["doc-a"] = &domain.ParseResult{
		Pages:   2,
		Quality: 0.8,
		TextBlocks: []domain.TextBlock{
			{Text: "Subscription pricing per seat for the SaaS tier.", Page: 1},
			{Text: "Supply voltage: 3.3 V typical for the module.", Page: 2},
		},
	}

	if err := f.uc.ProcessJob(ctx, "job-1"); err != nil {
		t.Fatalf("process job: %v", err)
	}

	cls := repo.classifications["doc-a"]
	if cls.Method != "forced" || cls.Confidence != 1.0 {
		t.Fatalf("expected forced classification, got %+v", cls)
	}
	job, _ := repo.GetJob(ctx, "job-1")
	if job.Domain != "semiconductor" {
		t.Fatalf("forced domain must stick, got %q", job.Domain)
	}
}

func TestProcessJobCreatesProposalForUnmappedLabel(t *testing.T) {
	repo := newFakeJobRepo()
	f := newProcessFixture(t, repo)
	ctx := context.Background()

	seedJob(repo, domain.DomainModeAuto, "")
	seedDocument(repo, "doc-a", "acme_datasheet.pdf")
	f.parser.results["doc-a"] = datasheetParse()
	f.semantic.candidates = []domain.ExtractionCandidate{{
		Label:         "quantum_flux_rating",
		Value:         domain.NumberValue(7),
		Confidence:    0.9,
		SourceContext: "Quantum flux rating: 7 units measured under nominal load conditions.",
		PageRef:       3,
		Method:        domain.MethodLLM,
	}}

	if err := f.uc.ProcessJob(ctx, "job-1"); err != nil {
		t.Fatalf("process job: %v", err)
	}

	proposals, _ := f.synonyms.ListProposals(ctx, domain.ProposalProposed)
	if len(proposals) != 1 {
		t.Fatalf("expected one proposal, got %v", proposals)
	}
	if proposals[0].LabelRaw != "quantum_flux_rating" {
		t.Fatalf("unexpected proposal label %q", proposals[0].LabelRaw)
	}
}

// staleRepo loses every transition CAS, as if another worker always got
// there first.
type staleRepo struct {
	*fakeJobRepo
}

func (r *staleRepo) Transition(context.Context, string, domain.JobStatus, domain.JobStatus, string) error {
	return domain.WrapError(domain.ErrInvalidTransition, "transition", errors.New("stale status"))
}

func TestProcessJobLostCASIsSilent(t *testing.T) {
	inner := newFakeJobRepo()
	seedJob(inner, domain.DomainModeAuto, "")
	seedDocument(inner, "doc-a", "acme_datasheet.pdf")

	registry := usecaseRegistry(t)
	classifier, err := classify.New(registry)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	parser := &fakeParser{results: map[string]*domain.ParseResult{"doc-a": datasheetParse()}}
	uc := NewProcessJobUseCase(
		&staleRepo{inner}, newFakeExtractionStore(), newFakeSynonymStore(canonical.Seed()),
		parser, &fakeSemantic{}, registry, classifier, rules.NewEngine(), normalize.New(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	if err := uc.ProcessJob(context.Background(), "job-1"); err != nil {
		t.Fatalf("a lost CAS must not surface an error, got %v", err)
	}
	job, _ := inner.GetJob(context.Background(), "job-1")
	if job.Status != domain.JobUploaded {
		t.Fatalf("losing writer must not move the job, got %q", job.Status)
	}
}

func TestProcessJobParserErrorFailsJob(t *testing.T) {
	repo := newFakeJobRepo()
	f := newProcessFixture(t, repo)
	ctx := context.Background()

	seedJob(repo, domain.DomainModeAuto, "")
	seedDocument(repo, "doc-a", "acme_datasheet.pdf")
	f.parser.errs["doc-a"] = errors.New("object storage unavailable")

	if err := f.uc.ProcessJob(ctx, "job-1"); err == nil {
		t.Fatal("expected processing error")
	}

	job, _ := repo.GetJob(ctx, "job-1")
	if job.Status != domain.JobFailed {
		t.Fatalf("expected failed, got %q", job.Status)
	}
	if job.Error == "" {
		t.Fatal("failed job must record its error")
	}
}

func TestProcessJobWithoutDocumentsIsInvalid(t *testing.T) {
	repo := newFakeJobRepo()
	f := newProcessFixture(t, repo)

	seedJob(repo, domain.DomainModeAuto, "")
	err := f.uc.ProcessJob(context.Background(), "job-1")
	if err == nil {
		t.Fatal("expected error for job without documents")
	}
}
