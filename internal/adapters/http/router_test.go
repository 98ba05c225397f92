package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/core/ports"
)

type stubJobService struct {
	createJobFn         func(ctx context.Context, workspaceID string, mode domain.DomainMode, forcedDomain string) (*domain.Job, error)
	uploadDocumentFn    func(ctx context.Context, jobID, filename string, body io.Reader) (*domain.Document, error)
	triggerProcessingFn func(ctx context.Context, jobID string) error
	cancelJobFn         func(ctx context.Context, jobID string) error
	getStatusFn         func(ctx context.Context, jobID string) (*ports.JobStatusView, error)
	getResultsFn        func(ctx context.Context, jobID string) (*domain.ComparisonDataset, error)
	exportFn            func(ctx context.Context, jobID, format string) (*domain.ExportFile, error)
}

func (s *stubJobService) CreateJob(ctx context.Context, workspaceID string, mode domain.DomainMode, forcedDomain string) (*domain.Job, error) {
	return s.createJobFn(ctx, workspaceID, mode, forcedDomain)
}

func (s *stubJobService) UploadDocument(ctx context.Context, jobID, filename string, body io.Reader) (*domain.Document, error) {
	return s.uploadDocumentFn(ctx, jobID, filename, body)
}

func (s *stubJobService) TriggerProcessing(ctx context.Context, jobID string) error {
	return s.triggerProcessingFn(ctx, jobID)
}

func (s *stubJobService) CancelJob(ctx context.Context, jobID string) error {
	return s.cancelJobFn(ctx, jobID)
}

func (s *stubJobService) GetStatus(ctx context.Context, jobID string) (*ports.JobStatusView, error) {
	return s.getStatusFn(ctx, jobID)
}

func (s *stubJobService) GetResults(ctx context.Context, jobID string) (*domain.ComparisonDataset, error) {
	return s.getResultsFn(ctx, jobID)
}

func (s *stubJobService) Export(ctx context.Context, jobID, format string) (*domain.ExportFile, error) {
	return s.exportFn(ctx, jobID, format)
}

type stubSynonymService struct {
	proposeFn func(ctx context.Context, labelRaw, sourceContext string, confidence float64) (*domain.ProposedSynonym, error)
	approveFn func(ctx context.Context, labelRaw, canonicalMetricID, metricLabel string, synonyms []string, optimality domain.Optimality) (*domain.SynonymMap, error)
}

func (s *stubSynonymService) Propose(ctx context.Context, labelRaw, sourceContext string, confidence float64) (*domain.ProposedSynonym, error) {
	return s.proposeFn(ctx, labelRaw, sourceContext, confidence)
}

func (s *stubSynonymService) Approve(ctx context.Context, labelRaw, canonicalMetricID, metricLabel string, synonyms []string, optimality domain.Optimality) (*domain.SynonymMap, error) {
	return s.approveFn(ctx, labelRaw, canonicalMetricID, metricLabel, synonyms, optimality)
}

func newTestServer(jobs ports.JobService, synonyms ports.SynonymService) *httptest.Server {
	rt := NewRouter(jobs, synonyms, nil, "vendorlens-api-test")
	return httptest.NewServer(rt.Handler())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubJobService{}, &stubSynonymService{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-Id"); got == "" {
		t.Fatal("expected request id header")
	}
}

func TestCreateJobReturns201(t *testing.T) {
	jobs := &stubJobService{
		createJobFn: func(_ context.Context, workspaceID string, mode domain.DomainMode, forcedDomain string) (*domain.Job, error) {
			if workspaceID != "ws-1" || mode != domain.DomainModeForced || forcedDomain != "semiconductor" {
				t.Fatalf("request not threaded: %q %q %q", workspaceID, mode, forcedDomain)
			}
			return &domain.Job{ID: "job-1", Status: domain.JobCreated, DomainMode: mode, Domain: forcedDomain}, nil
		},
	}
	srv := newTestServer(jobs, &stubSynonymService{})
	defer srv.Close()

	body := `{"workspace_id":"ws-1","domain_mode":"forced","domain":"semiconductor"}`
	resp, err := http.Post(srv.URL+"/v1/jobs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var job domain.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.ID != "job-1" {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestCreateJobMapsInvalidInput(t *testing.T) {
	jobs := &stubJobService{
		createJobFn: func(context.Context, string, domain.DomainMode, string) (*domain.Job, error) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "create job", errors.New("unknown domain mode"))
		},
	}
	srv := newTestServer(jobs, &stubSynonymService{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/jobs", "application/json", strings.NewReader(`{"domain_mode":"hybrid"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUploadDocumentMultipart(t *testing.T) {
	jobs := &stubJobService{
		uploadDocumentFn: func(_ context.Context, jobID, filename string, body io.Reader) (*domain.Document, error) {
			raw, _ := io.ReadAll(body)
			if jobID != "job-1" || filename != "acme.pdf" || string(raw) != "%PDF-1.4 payload" {
				t.Fatalf("upload not threaded: %q %q %q", jobID, filename, raw)
			}
			return &domain.Document{ID: "doc-1", JobID: jobID, Filename: filename}, nil
		},
	}
	srv := newTestServer(jobs, &stubSynonymService{})
	defer srv.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "acme.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 payload")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	resp, err := http.Post(srv.URL+"/v1/jobs/job-1/documents", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
}

func TestUploadDocumentMissingFileField(t *testing.T) {
	srv := newTestServer(&stubJobService{}, &stubSynonymService{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/jobs/job-1/documents", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTriggerProcessingStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"accepted", nil, http.StatusAccepted},
		{"not found", domain.WrapError(domain.ErrJobNotFound, "get job", errors.New("missing")), http.StatusNotFound},
		{"terminal", domain.WrapError(domain.ErrInvalidTransition, "trigger", errors.New("already ready")), http.StatusConflict},
		{"unavailable", domain.WrapError(domain.ErrTemporary, "publish", errors.New("nats down")), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			jobs := &stubJobService{
				triggerProcessingFn: func(context.Context, string) error { return tc.err },
			}
			srv := newTestServer(jobs, &stubSynonymService{})
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/v1/jobs/job-1/process", "application/json", nil)
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestGetResults(t *testing.T) {
	jobs := &stubJobService{
		getResultsFn: func(context.Context, string) (*domain.ComparisonDataset, error) {
			ds := domain.EmptyComparisonDataset()
			ds.SynonymMapVersion = 3
			return ds, nil
		},
	}
	srv := newTestServer(jobs, &stubSynonymService{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/jobs/job-1/results")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ds domain.ComparisonDataset
	if err := json.NewDecoder(resp.Body).Decode(&ds); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ds.SynonymMapVersion != 3 {
		t.Fatalf("unexpected dataset %+v", ds)
	}
}

func TestExportDefaultsToCSV(t *testing.T) {
	var gotFormat string
	jobs := &stubJobService{
		exportFn: func(_ context.Context, jobID, format string) (*domain.ExportFile, error) {
			gotFormat = format
			return &domain.ExportFile{StorageKey: "exports/comparison_" + jobID + ".csv", Filename: "comparison_" + jobID + ".csv", ContentType: "text/csv"}, nil
		},
	}
	srv := newTestServer(jobs, &stubSynonymService{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/jobs/job-1/export", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if gotFormat != "csv" {
		t.Fatalf("expected default csv format, got %q", gotFormat)
	}
}

func TestProposeSynonymValidation(t *testing.T) {
	synonyms := &stubSynonymService{
		proposeFn: func(_ context.Context, labelRaw, _ string, _ float64) (*domain.ProposedSynonym, error) {
			return &domain.ProposedSynonym{ID: "p-1", LabelRaw: labelRaw, Status: domain.ProposalProposed}, nil
		},
	}
	srv := newTestServer(&stubJobService{}, synonyms)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/synonyms/proposals", "application/json", strings.NewReader(`{"label_raw":"  "}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank label must be rejected, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/v1/synonyms/proposals", "application/json",
		strings.NewReader(`{"label_raw":"quantum flux","context":"spec sheet","confidence":0.8}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
}

func TestApproveSynonymReturnsNewVersion(t *testing.T) {
	synonyms := &stubSynonymService{
		approveFn: func(_ context.Context, labelRaw, canonicalMetricID, metricLabel string, synList []string, optimality domain.Optimality) (*domain.SynonymMap, error) {
			if labelRaw != "quantum flux" || canonicalMetricID != "QUANTUM_FLUX" || optimality != domain.OptimalityMax {
				t.Fatalf("approve not threaded: %q %q %q", labelRaw, canonicalMetricID, optimality)
			}
			return &domain.SynonymMap{Version: 2, Active: true}, nil
		},
	}
	srv := newTestServer(&stubJobService{}, synonyms)
	defer srv.Close()

	body := `{"label_raw":"quantum flux","canonical_metric_id":"QUANTUM_FLUX","metric_label":"quantum_flux","synonyms":["flux"],"optimality":"max"}`
	resp, err := http.Post(srv.URL+"/v1/synonyms/approve", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var m domain.SynonymMap
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Version != 2 {
		t.Fatalf("unexpected map %+v", m)
	}
}
