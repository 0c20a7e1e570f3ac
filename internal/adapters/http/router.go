package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/docqa/internal/config"
	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
	"github.com/kirillkom/docqa/internal/core/usecase"
	"github.com/kirillkom/docqa/internal/observability/metrics"
)

const (
	serviceName     = "docqa-api"
	maxRequestBytes = 4 << 20
)

type Router struct {
	loader    ports.DocumentLoader
	answerer  ports.QuestionAnswerer
	submitter ports.JobSubmitter
	jobs      ports.JobReader
	metrics   *metrics.HTTPServerMetrics

	apiKey         string
	rateLimitRPS   int
	rateLimitBurst int
	maxInFlight    int
	queueTimeout   time.Duration
	requestTimeout time.Duration
}

// NewRouter wires the HTTP surface. submitter and jobs may be nil when the
// service runs without the asynchronous job backend; the job routes then
// answer 503.
func NewRouter(
	cfg config.Config,
	loader ports.DocumentLoader,
	answerer ports.QuestionAnswerer,
	submitter ports.JobSubmitter,
	jobs ports.JobReader,
) *Router {
	return &Router{
		loader:         loader,
		answerer:       answerer,
		submitter:      submitter,
		jobs:           jobs,
		apiKey:         cfg.APIKey,
		rateLimitRPS:   cfg.APIRateLimitRPS,
		rateLimitBurst: cfg.APIRateLimitBurst,
		maxInFlight:    cfg.APIMaxInFlight,
		queueTimeout:   time.Duration(cfg.APIQueueTimeoutMS) * time.Millisecond,
		requestTimeout: time.Duration(cfg.RequestTimeoutSecs) * time.Second,
	}
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/hackrx/run", rt.runQuestions)
	api.HandleFunc("POST /hackrx/run", rt.runQuestions)
	api.HandleFunc("POST /v1/jobs", rt.submitJob)
	api.HandleFunc("GET /v1/jobs/{id}", rt.getJob)

	var protected http.Handler = api
	protected = backpressureMiddleware(protected, rt.maxInFlight, rt.queueTimeout, rt.recordRejected)
	protected = rateLimitMiddleware(protected, rt.rateLimitRPS, rt.rateLimitBurst, rt.recordRejected)
	protected = authMiddleware(protected, rt.apiKey, rt.recordRejected)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rt.welcome)
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.Handle("/v1/", protected)
	mux.Handle("/hackrx/", protected)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) recordRejected(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(serviceName, reason)
	}
}

func (rt *Router) welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "docqa",
		"message": "POST /v1/hackrx/run with a document and questions",
	})
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runRequest struct {
	Documents    string   `json:"documents"`
	DocumentText string   `json:"document_text"`
	Questions    []string `json:"questions"`
	Detailed     bool     `json:"detailed"`
}

type runResponse struct {
	Answers []string              `json:"answers"`
	Results []domain.AnswerRecord `json:"results,omitempty"`
}

func (rt *Router) runQuestions(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRunRequest(w, r)
	if !ok {
		return
	}

	questions, err := usecase.ValidateRequest(req.Documents, req.DocumentText, req.Questions)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if rt.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.requestTimeout)
		defer cancel()
	}

	text, err := rt.loader.Load(ctx, domain.DocumentSource{URL: req.Documents, Text: req.DocumentText})
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := rt.answerer.Run(ctx, text, questions)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := runResponse{Answers: domain.Answers(records)}
	if req.Detailed {
		resp.Results = records
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) submitJob(w http.ResponseWriter, r *http.Request) {
	if rt.submitter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "job backend is not configured"})
		return
	}

	req, ok := decodeRunRequest(w, r)
	if !ok {
		return
	}

	job, err := rt.submitter.Submit(r.Context(), domain.JobRequest{
		DocumentURL:  req.Documents,
		DocumentText: req.DocumentText,
		Questions:    req.Questions,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("job_submitted", "request_id", requestIDFromContext(r.Context()), "job_id", job.ID, "questions", len(job.Questions))
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) getJob(w http.ResponseWriter, r *http.Request) {
	if rt.jobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "job backend is not configured"})
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	job, err := rt.jobs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func decodeRunRequest(w http.ResponseWriter, r *http.Request) (runRequest, bool) {
	var req runRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return runRequest{}, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return runRequest{}, false
	}
	return req, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
