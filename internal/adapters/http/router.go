package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/core/ports"
	"github.com/vendorlens/vendorlens/internal/observability/metrics"
)

type Router struct {
	jobs     ports.JobService
	synonyms ports.SynonymService
	metrics  *metrics.HTTPServerMetrics
	service  string
}

func NewRouter(jobs ports.JobService, synonyms ports.SynonymService, httpMetrics *metrics.HTTPServerMetrics, service string) *Router {
	return &Router{
		jobs:     jobs,
		synonyms: synonyms,
		metrics:  httpMetrics,
		service:  service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/jobs", rt.createJob)
	mux.HandleFunc("POST /v1/jobs/{job_id}/documents", rt.uploadDocument)
	mux.HandleFunc("POST /v1/jobs/{job_id}/process", rt.triggerProcessing)
	mux.HandleFunc("POST /v1/jobs/{job_id}/cancel", rt.cancelJob)
	mux.HandleFunc("GET /v1/jobs/{job_id}", rt.getJob)
	mux.HandleFunc("GET /v1/jobs/{job_id}/results", rt.getResults)
	mux.HandleFunc("POST /v1/jobs/{job_id}/export", rt.exportResults)

	mux.HandleFunc("POST /v1/synonyms/proposals", rt.proposeSynonym)
	mux.HandleFunc("POST /v1/synonyms/approve", rt.approveSynonym)

	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkspaceID string `json:"workspace_id"`
		DomainMode  string `json:"domain_mode"`
		Domain      string `json:"domain"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	job, err := rt.jobs.CreateJob(r.Context(), req.WorkspaceID, domain.DomainMode(req.DomainMode), req.Domain)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordJobCreated(rt.service, string(job.DomainMode))
	}
	writeJSON(w, http.StatusCreated, job)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.jobs.UploadDocument(r.Context(), jobID, fileHeader.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, int(fileHeader.Size))
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) triggerProcessing(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if err := rt.jobs.TriggerProcessing(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": "processing"})
}

func (rt *Router) cancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if err := rt.jobs.CancelJob(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID, "status": string(domain.JobCancelled)})
}

func (rt *Router) getJob(w http.ResponseWriter, r *http.Request) {
	view, err := rt.jobs.GetStatus(r.Context(), r.PathValue("job_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) getResults(w http.ResponseWriter, r *http.Request) {
	dataset, err := rt.jobs.GetResults(r.Context(), r.PathValue("job_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}

func (rt *Router) exportResults(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	var req struct {
		Format string `json:"format"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}
	if req.Format == "" {
		req.Format = "csv"
	}

	exportFile, err := rt.jobs.Export(r.Context(), jobID, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExport(rt.service, req.Format)
	}
	writeJSON(w, http.StatusCreated, exportFile)
}

func (rt *Router) proposeSynonym(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LabelRaw   string  `json:"label_raw"`
		Context    string  `json:"context"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.LabelRaw) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label_raw is required"})
		return
	}

	proposal, err := rt.synonyms.Propose(r.Context(), req.LabelRaw, req.Context, req.Confidence)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

func (rt *Router) approveSynonym(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LabelRaw          string   `json:"label_raw"`
		CanonicalMetricID string   `json:"canonical_metric_id"`
		MetricLabel       string   `json:"metric_label"`
		Synonyms          []string `json:"synonyms"`
		Optimality        string   `json:"optimality"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	next, err := rt.synonyms.Approve(r.Context(), req.LabelRaw, req.CanonicalMetricID, req.MetricLabel, req.Synonyms, domain.Optimality(req.Optimality))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
