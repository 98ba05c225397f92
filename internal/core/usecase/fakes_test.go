package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/profile"
)

// fakeJobRepo is an in-memory JobRepository with the same compare-and-swap
// transition semantics as the SQL implementation.
type fakeJobRepo struct {
	mu              sync.Mutex
	jobs            map[string]*domain.Job
	documents       map[string]*domain.Document
	classifications map[string]domain.DomainClassification
	transitionHook  func(id string, from, to domain.JobStatus)
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		jobs:            make(map[string]*domain.Job),
		documents:       make(map[string]*domain.Document),
		classifications: make(map[string]domain.DomainClassification),
	}
}

func (r *fakeJobRepo) CreateJob(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepo) GetJob(_ context.Context, id string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get job", errors.New(id))
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) Transition(_ context.Context, id string, from, to domain.JobStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.WrapError(domain.ErrJobNotFound, "transition", errors.New(id))
	}
	if job.Status != from {
		return domain.WrapError(domain.ErrInvalidTransition, "transition",
			errors.New("stale status "+string(from)))
	}
	if r.transitionHook != nil {
		r.transitionHook(id, from, to)
	}
	job.Status = to
	job.Error = errMessage
	job.Version++
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeJobRepo) UpdateMetrics(_ context.Context, id string, metrics domain.JobMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.WrapError(domain.ErrJobNotFound, "update metrics", errors.New(id))
	}
	job.Metrics = metrics
	return nil
}

func (r *fakeJobRepo) SetDomain(_ context.Context, id, domainName string, profileVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.WrapError(domain.ErrJobNotFound, "set domain", errors.New(id))
	}
	job.Domain = domainName
	job.ProfileVersion = profileVersion
	return nil
}

func (r *fakeJobRepo) CreateDocument(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.documents[doc.ID] = &copied
	return nil
}

func (r *fakeJobRepo) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeJobRepo) ListDocuments(_ context.Context, jobID string) ([]domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var docs []domain.Document
	for _, doc := range r.documents {
		if doc.JobID == jobID {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func (r *fakeJobRepo) UpdateDocumentParse(_ context.Context, id string, pageCount int, quality float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update parse", errors.New(id))
	}
	doc.PageCount = pageCount
	doc.QualityScore = quality
	return nil
}

func (r *fakeJobRepo) UpdateDocumentExtraction(_ context.Context, id string, status domain.ExtractionStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update extraction", errors.New(id))
	}
	doc.ExtractionStatus = status
	doc.ExtractionError = errMessage
	return nil
}

func (r *fakeJobRepo) SaveClassification(_ context.Context, cls domain.DomainClassification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifications[cls.DocumentID] = cls
	return nil
}

func (r *fakeJobRepo) GetClassification(_ context.Context, documentID string) (*domain.DomainClassification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cls, ok := r.classifications[documentID]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get classification", errors.New(documentID))
	}
	return &cls, nil
}

type fakeExtractionStore struct {
	mu          sync.Mutex
	fields      map[string][]domain.NormalizedField
	docJobs     map[string]string
	comparisons map[string]*domain.ComparisonDataset
}

func newFakeExtractionStore() *fakeExtractionStore {
	return &fakeExtractionStore{
		fields:      make(map[string][]domain.NormalizedField),
		docJobs:     make(map[string]string),
		comparisons: make(map[string]*domain.ComparisonDataset),
	}
}

func (s *fakeExtractionStore) SaveFields(_ context.Context, documentID string, fields []domain.NormalizedField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[documentID] = fields
	return nil
}

func (s *fakeExtractionStore) ListFieldsByJob(_ context.Context, jobID string) (map[string][]domain.NormalizedField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]domain.NormalizedField)
	for docID, fields := range s.fields {
		if job, ok := s.docJobs[docID]; !ok || job == jobID {
			out[docID] = fields
		}
	}
	return out, nil
}

func (s *fakeExtractionStore) SaveComparison(_ context.Context, jobID string, dataset *domain.ComparisonDataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparisons[jobID] = dataset
	return nil
}

func (s *fakeExtractionStore) GetComparison(_ context.Context, jobID string) (*domain.ComparisonDataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comparisons[jobID], nil
}

type fakeSynonymStore struct {
	mu        sync.Mutex
	active    *domain.SynonymMap
	versions  map[int]*domain.SynonymMap
	proposals []domain.ProposedSynonym
	approved  []string
}

func newFakeSynonymStore(active *domain.SynonymMap) *fakeSynonymStore {
	s := &fakeSynonymStore{versions: make(map[int]*domain.SynonymMap)}
	if active != nil {
		s.active = active
		s.versions[active.Version] = active
	}
	return s
}

func (s *fakeSynonymStore) ActiveMap(_ context.Context) (*domain.SynonymMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil, domain.WrapError(domain.ErrVersionNotFound, "active map", errors.New("no active synonym map"))
	}
	return s.active, nil
}

func (s *fakeSynonymStore) GetVersion(_ context.Context, version int) (*domain.SynonymMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.versions[version]
	if !ok {
		return nil, domain.WrapError(domain.ErrVersionNotFound, "get version", errors.New("missing version"))
	}
	return m, nil
}

func (s *fakeSynonymStore) SaveNewVersion(_ context.Context, m *domain.SynonymMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.Active = false
	}
	s.active = m
	s.versions[m.Version] = m
	return nil
}

func (s *fakeSynonymStore) CreateProposal(_ context.Context, proposal *domain.ProposedSynonym) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals = append(s.proposals, *proposal)
	return nil
}

func (s *fakeSynonymStore) ListProposals(_ context.Context, status domain.ProposalStatus) ([]domain.ProposedSynonym, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ProposedSynonym
	for _, p := range s.proposals {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeSynonymStore) MarkProposalApproved(_ context.Context, labelRaw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approved = append(s.approved, labelRaw)
	for i := range s.proposals {
		if s.proposals[i].LabelRaw == labelRaw && s.proposals[i].Status == domain.ProposalProposed {
			s.proposals[i].Status = domain.ProposalApproved
		}
	}
	return nil
}

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte)}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = raw
	return nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("no object " + key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type fakeQueue struct {
	mu        sync.Mutex
	published []string
}

func (q *fakeQueue) PublishJobProcess(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, jobID)
	return nil
}

func (q *fakeQueue) SubscribeJobProcess(context.Context, func(context.Context, string) error) error {
	return nil
}

// fakeParser serves canned parse results keyed by document ID.
type fakeParser struct {
	results map[string]*domain.ParseResult
	errs    map[string]error
	calls   int
}

func (p *fakeParser) Parse(_ context.Context, doc *domain.Document) (*domain.ParseResult, error) {
	p.calls++
	if err, ok := p.errs[doc.ID]; ok {
		return nil, err
	}
	if parse, ok := p.results[doc.ID]; ok {
		return parse, nil
	}
	return &domain.ParseResult{Pages: 1, Quality: 0.5}, nil
}

type fakeSemantic struct {
	candidates []domain.ExtractionCandidate
	calls      int
}

func (e *fakeSemantic) Extract(context.Context, *profile.Profile, *domain.ParseResult) []domain.ExtractionCandidate {
	e.calls++
	return e.candidates
}
