package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vendorlens/vendorlens/internal/aggregate"
	"github.com/vendorlens/vendorlens/internal/canonical"
	"github.com/vendorlens/vendorlens/internal/classify"
	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/core/ports"
	"github.com/vendorlens/vendorlens/internal/normalize"
	"github.com/vendorlens/vendorlens/internal/profile"
	"github.com/vendorlens/vendorlens/internal/rules"
)

const (
	costPerPage    = 0.002
	costPerLLMCall = 0.01

	methodForced = "forced"
)

// ProcessJobUseCase drives one job through the stage machine. Stage entry
// is guarded by a compare-and-swap on the predecessor status, so stages
// are idempotent against retriggering and concurrent worker invocations.
type ProcessJobUseCase struct {
	repo       ports.JobRepository
	fields     ports.ExtractionStore
	synonyms   ports.SynonymStore
	parser     ports.DocumentParser
	semantic   ports.SemanticExtractor
	registry   *profile.Registry
	classifier *classify.Classifier
	rules      *rules.Engine
	normalizer *normalize.Normalizer
	logger     *slog.Logger
}

func NewProcessJobUseCase(
	repo ports.JobRepository,
	fields ports.ExtractionStore,
	synonyms ports.SynonymStore,
	parser ports.DocumentParser,
	semantic ports.SemanticExtractor,
	registry *profile.Registry,
	classifier *classify.Classifier,
	ruleEngine *rules.Engine,
	normalizer *normalize.Normalizer,
	logger *slog.Logger,
) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		repo:       repo,
		fields:     fields,
		synonyms:   synonyms,
		parser:     parser,
		semantic:   semantic,
		registry:   registry,
		classifier: classifier,
		rules:      ruleEngine,
		normalizer: normalizer,
		logger:     logger,
	}
}

// runState caches per-run artifacts. Parse results and raw candidates are
// ephemeral: they are rebuilt on demand if a run resumes mid-pipeline.
type runState struct {
	start      time.Time
	parses     map[string]*domain.ParseResult
	candidates map[string][]domain.ExtractionCandidate
	llmCalls   int
}

func (uc *ProcessJobUseCase) ProcessJob(ctx context.Context, jobID string) error {
	state := &runState{
		start:      time.Now(),
		parses:     make(map[string]*domain.ParseResult),
		candidates: make(map[string][]domain.ExtractionCandidate),
	}

	for {
		job, err := uc.repo.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status.IsTerminal() {
			return nil
		}

		var stageErr error
		switch job.Status {
		case domain.JobCreated:
			return domain.WrapError(domain.ErrInvalidInput, "process job", errors.New("job has no uploaded documents"))
		case domain.JobUploaded:
			stageErr = uc.stageClassify(ctx, job, state)
		case domain.JobClassified:
			stageErr = uc.stageParsed(ctx, job, state)
		case domain.JobParsed:
			stageErr = uc.stageExtract(ctx, job, state)
		case domain.JobExtracted:
			stageErr = uc.stageNormalize(ctx, job, state)
		case domain.JobNormalized:
			stageErr = uc.stageBuild(ctx, job, state)
		case domain.JobBuilt:
			stageErr = uc.stageFinalize(ctx, job, state)
		default:
			return nil
		}

		if stageErr != nil {
			// A lost CAS means another writer owns this stage; back off.
			if domain.IsKind(stageErr, domain.ErrInvalidTransition) {
				return nil
			}
			uc.markFailed(ctx, job, stageErr)
			return stageErr
		}
	}
}

// stageClassify parses every document once and classifies its domain,
// then pins the job's domain and profile version.
func (uc *ProcessJobUseCase) stageClassify(ctx context.Context, job *domain.Job, state *runState) error {
	docs, err := uc.repo.ListDocuments(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return errors.New("classify stage: job has no documents")
	}

	var best *domain.DomainClassification
	for i := range docs {
		doc := &docs[i]
		parse, err := uc.ensureParse(ctx, doc, state)
		if err != nil {
			return fmt.Errorf("parse document %s: %w", doc.ID, err)
		}

		var cls domain.DomainClassification
		if job.DomainMode == domain.DomainModeForced {
			cls = domain.DomainClassification{
				Domain:             job.Domain,
				Confidence:         1.0,
				Method:             methodForced,
				AlternativeDomains: []string{},
			}
		} else {
			cls = uc.classifier.Classify(parse, doc.Filename)
		}
		cls.DocumentID = doc.ID

		if err := uc.repo.SaveClassification(ctx, cls); err != nil {
			return fmt.Errorf("save classification for %s: %w", doc.ID, err)
		}
		if best == nil || cls.Confidence > best.Confidence {
			copied := cls
			best = &copied
		}
	}

	jobDomain := job.Domain
	if job.DomainMode != domain.DomainModeForced {
		jobDomain = best.Domain
	}
	prof, err := uc.registry.Active(jobDomain)
	if err != nil {
		return fmt.Errorf("resolve profile for domain %q: %w", jobDomain, err)
	}
	if err := uc.repo.SetDomain(ctx, job.ID, jobDomain, prof.Version); err != nil {
		return fmt.Errorf("pin job domain: %w", err)
	}

	return uc.repo.Transition(ctx, job.ID, domain.JobUploaded, domain.JobClassified, "")
}

// stageParsed persists page counts and quality from the cached parses and
// records page-level job metrics.
func (uc *ProcessJobUseCase) stageParsed(ctx context.Context, job *domain.Job, state *runState) error {
	docs, err := uc.repo.ListDocuments(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	pagesTotal := 0
	ocrPages := 0
	for i := range docs {
		doc := &docs[i]
		parse, err := uc.ensureParse(ctx, doc, state)
		if err != nil {
			return fmt.Errorf("parse document %s: %w", doc.ID, err)
		}
		if err := uc.repo.UpdateDocumentParse(ctx, doc.ID, parse.Pages, parse.Quality); err != nil {
			return fmt.Errorf("record parse for %s: %w", doc.ID, err)
		}
		pagesTotal += parse.Pages
		if parse.OCRUsed {
			ocrPages += parse.Pages
		}
	}

	metrics := job.Metrics
	metrics.PagesTotal = pagesTotal
	metrics.OCRPages = ocrPages
	if err := uc.repo.UpdateMetrics(ctx, job.ID, metrics); err != nil {
		return fmt.Errorf("update job metrics: %w", err)
	}

	return uc.repo.Transition(ctx, job.ID, domain.JobClassified, domain.JobParsed, "")
}

// stageExtract runs every extraction source per document, sequentially.
// A failing document is recorded and skipped; the job proceeds with
// whatever succeeded.
func (uc *ProcessJobUseCase) stageExtract(ctx context.Context, job *domain.Job, state *runState) error {
	prof, err := uc.jobProfile(job)
	if err != nil {
		return err
	}
	docs, err := uc.repo.ListDocuments(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	for i := range docs {
		doc := &docs[i]
		candidates, err := uc.extractDocument(ctx, job, prof, doc, state)
		if err != nil {
			uc.logger.Warn("document_extraction_failed", "job_id", job.ID, "document_id", doc.ID, "error", err)
			if markErr := uc.repo.UpdateDocumentExtraction(ctx, doc.ID, domain.ExtractionFailed, err.Error()); markErr != nil {
				return fmt.Errorf("record extraction failure for %s: %w", doc.ID, markErr)
			}
			continue
		}
		state.candidates[doc.ID] = candidates
	}

	return uc.repo.Transition(ctx, job.ID, domain.JobParsed, domain.JobExtracted, "")
}

func (uc *ProcessJobUseCase) extractDocument(ctx context.Context, job *domain.Job, prof *profile.Profile, doc *domain.Document, state *runState) ([]domain.ExtractionCandidate, error) {
	parse, err := uc.ensureParse(ctx, doc, state)
	if err != nil {
		return nil, err
	}
	if degradedParse(parse) {
		return nil, errors.New("no extractable signal in parse output")
	}

	bySource := map[domain.ExtractionMethod][]domain.ExtractionCandidate{
		domain.MethodRule:      uc.rules.Extract(job.Domain, parse.TextBlocks),
		domain.MethodHeuristic: rules.ExtractHeuristics(prof, parse.TextBlocks),
		domain.MethodPattern:   rules.ExtractPatterns(parse.TextBlocks),
		domain.MethodTable:     rules.ExtractTables(parse.Tables),
	}
	bySource[domain.MethodLLM] = uc.semantic.Extract(ctx, prof, parse)
	state.llmCalls++

	merged := MergeCandidates(bySource)
	if len(merged) == 0 {
		return nil, errors.New("no candidates from any extraction source")
	}
	return merged, nil
}

// stageNormalize converts candidates to normalized fields, canonicalizes
// labels against the active synonym map and persists the result.
func (uc *ProcessJobUseCase) stageNormalize(ctx context.Context, job *domain.Job, state *runState) error {
	prof, err := uc.jobProfile(job)
	if err != nil {
		return err
	}
	activeMap, err := uc.synonyms.ActiveMap(ctx)
	if err != nil {
		return fmt.Errorf("load active synonym map: %w", err)
	}
	docs, err := uc.repo.ListDocuments(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	for i := range docs {
		doc := &docs[i]
		if doc.ExtractionStatus == domain.ExtractionFailed {
			continue
		}

		candidates, ok := state.candidates[doc.ID]
		if !ok {
			// Cold cache after a resumed run; rebuild the candidates.
			candidates, err = uc.extractDocument(ctx, job, prof, doc, state)
			if err != nil {
				if markErr := uc.repo.UpdateDocumentExtraction(ctx, doc.ID, domain.ExtractionFailed, err.Error()); markErr != nil {
					return fmt.Errorf("record extraction failure for %s: %w", doc.ID, markErr)
				}
				continue
			}
		}

		fields := uc.normalizer.Normalize(doc.ID, prof, candidates)
		for j := range fields {
			uc.canonicalizeField(ctx, activeMap, &fields[j])
		}

		if err := uc.fields.SaveFields(ctx, doc.ID, fields); err != nil {
			return fmt.Errorf("save fields for %s: %w", doc.ID, err)
		}
		if err := uc.repo.UpdateDocumentExtraction(ctx, doc.ID, domain.ExtractionOK, ""); err != nil {
			return fmt.Errorf("record extraction success for %s: %w", doc.ID, err)
		}
	}

	return uc.repo.Transition(ctx, job.ID, domain.JobExtracted, domain.JobNormalized, "")
}

// canonicalizeField resolves the canonical metric ID, or records a
// proposal when a confident label has no mapping. Proposal failures are
// logged, never fatal.
func (uc *ProcessJobUseCase) canonicalizeField(ctx context.Context, activeMap *domain.SynonymMap, field *domain.NormalizedField) {
	entry, ok := canonical.Resolve(activeMap, field.FieldID)
	if ok {
		field.MetricID = entry.CanonicalMetricID
		return
	}
	if !canonical.ShouldPropose(field.Confidence) {
		return
	}
	proposal := &domain.ProposedSynonym{
		ID:         uuid.NewString(),
		LabelRaw:   field.FieldID,
		Context:    field.Note,
		Confidence: field.Confidence,
		Status:     domain.ProposalProposed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.synonyms.CreateProposal(ctx, proposal); err != nil {
		uc.logger.Warn("synonym_proposal_failed", "label", field.FieldID, "error", err)
	}
}

// stageBuild aggregates the comparison dataset from every document that
// extracted successfully. The dataset is rebuilt wholesale.
func (uc *ProcessJobUseCase) stageBuild(ctx context.Context, job *domain.Job, _ *runState) error {
	docs, err := uc.repo.ListDocuments(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	fieldsByDoc, err := uc.fields.ListFieldsByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load fields: %w", err)
	}
	activeMap, err := uc.synonyms.ActiveMap(ctx)
	if err != nil {
		return fmt.Errorf("load active synonym map: %w", err)
	}

	var succeeded []domain.Document
	for _, doc := range docs {
		if doc.ExtractionStatus == domain.ExtractionOK {
			succeeded = append(succeeded, doc)
		}
	}

	dataset := aggregate.Build(aggregate.Input{
		Documents:  succeeded,
		Fields:     fieldsByDoc,
		SynonymMap: activeMap,
	})
	if err := uc.fields.SaveComparison(ctx, job.ID, dataset); err != nil {
		return fmt.Errorf("save comparison dataset: %w", err)
	}

	return uc.repo.Transition(ctx, job.ID, domain.JobNormalized, domain.JobBuilt, "")
}

// stageFinalize decides the terminal status from per-document outcomes
// and records the final job metrics.
func (uc *ProcessJobUseCase) stageFinalize(ctx context.Context, job *domain.Job, state *runState) error {
	docs, err := uc.repo.ListDocuments(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	succeeded, failed := 0, 0
	pagesTotal := 0
	for _, doc := range docs {
		pagesTotal += doc.PageCount
		switch doc.ExtractionStatus {
		case domain.ExtractionOK:
			succeeded++
		case domain.ExtractionFailed:
			failed++
		}
	}

	metrics := job.Metrics
	metrics.LatencyMs = time.Since(state.start).Milliseconds()
	if metrics.PagesTotal == 0 {
		metrics.PagesTotal = pagesTotal
	}
	metrics.CostEstimate = float64(metrics.PagesTotal)*costPerPage + float64(state.llmCalls)*costPerLLMCall
	if err := uc.repo.UpdateMetrics(ctx, job.ID, metrics); err != nil {
		return fmt.Errorf("update job metrics: %w", err)
	}

	final := domain.JobReady
	switch {
	case succeeded == 0:
		final = domain.JobFailedNoSignal
	case failed > 0:
		final = domain.JobReadyPartial
	}

	uc.logger.Info("job_finished",
		"job_id", job.ID,
		"status", final,
		"documents_ok", succeeded,
		"documents_failed", failed,
		"latency_ms", metrics.LatencyMs,
	)
	return uc.repo.Transition(ctx, job.ID, domain.JobBuilt, final, "")
}

func (uc *ProcessJobUseCase) ensureParse(ctx context.Context, doc *domain.Document, state *runState) (*domain.ParseResult, error) {
	if parse, ok := state.parses[doc.ID]; ok {
		return parse, nil
	}
	parse, err := uc.parser.Parse(ctx, doc)
	if err != nil {
		return nil, err
	}
	state.parses[doc.ID] = parse
	return parse, nil
}

func (uc *ProcessJobUseCase) jobProfile(job *domain.Job) (*profile.Profile, error) {
	if job.Domain == "" {
		return nil, errors.New("job has no domain after classification")
	}
	if job.ProfileVersion > 0 {
		return uc.registry.Get(job.Domain, job.ProfileVersion)
	}
	return uc.registry.Active(job.Domain)
}

func (uc *ProcessJobUseCase) markFailed(ctx context.Context, job *domain.Job, cause error) {
	err := uc.repo.Transition(ctx, job.ID, job.Status, domain.JobFailed, cause.Error())
	if err != nil && !domain.IsKind(err, domain.ErrInvalidTransition) {
		uc.logger.Error("mark_job_failed", "job_id", job.ID, "error", err)
	}
}

// degradedParse recognizes the OCR worker's failure shape: no quality and
// at most one synthetic text block.
func degradedParse(parse *domain.ParseResult) bool {
	if parse == nil {
		return true
	}
	return parse.Quality == 0 && len(parse.TextBlocks) <= 1 && len(parse.Tables) == 0
}
