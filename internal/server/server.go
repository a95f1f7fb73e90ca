package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/astralhq/astral/internal/app"
	"github.com/astralhq/astral/internal/compare"
	"github.com/astralhq/astral/internal/generator"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
)

// Server is the HTTP + WebSocket API surface for the report engine.
type Server struct {
	cfg          Config
	application  *app.Application
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer creates a new Server with its own Application.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	application, err := app.NewApplication(cfg.AppConfig, logger)
	if err != nil {
		return nil, err
	}
	if err := application.Start(); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:          cfg,
		application:  application,
		orchestrator: application.Orch,
		router:       r,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/reports", s.optionsHandler("POST"))
	r.Options("/reports/kinds", s.optionsHandler("GET"))
	r.Options("/compare", s.optionsHandler("POST"))
	r.Options("/compare/export", s.optionsHandler("POST"))
	r.Options("/jobs", s.optionsHandler("GET"))
	r.Options("/jobs/generate", s.optionsHandler("POST"))
	r.Options("/jobs/batch", s.optionsHandler("POST"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/owners/{owner}/reports", s.optionsHandler("GET"))
	r.Options("/owners/{owner}/reports/{reportID}", s.optionsHandler("DELETE"))
	r.Options("/ws/jobs/{jobID}", s.optionsHandler("GET"))

	// Reports
	r.Post("/reports", s.handleGenerateReport)
	r.Get("/reports/kinds", s.handleListKinds)

	// Comparison
	r.Post("/compare", s.handleCompare)
	r.Post("/compare/export", s.handleExportComparison)

	// Jobs over REST
	r.Post("/jobs/generate", s.handleStartGenerateJob)
	r.Post("/jobs/batch", s.handleStartBatchJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// Persisted reports
	r.Get("/owners/{owner}/reports", s.handleListReports)
	r.Delete("/owners/{owner}/reports/{reportID}", s.handleDeleteReport)

	// WebSockets for job progress
	r.Get("/ws/jobs/{jobID}", s.handleJobWS)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the application and its underlying resources.
func (s *Server) Close() {
	if s.application != nil {
		if err := s.application.Shutdown(context.Background()); err != nil {
			s.logger.Warn("shutting down application", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeTypedError maps the generation error taxonomy onto HTTP statuses:
// user-correctable input problems are 400s, everything else is a 500.
func writeTypedError(w http.ResponseWriter, err error) {
	code := generator.CodeOf(err)
	status := http.StatusInternalServerError
	if code == generator.CodeValidation {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

// --- HTTP handlers ---

// Reports

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req generator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	report, err := s.orchestrator.Generate(r.Context(), req)
	if err != nil {
		s.logger.Warn("generating report", logging.Field{Key: "error", Value: err.Error()})
		writeTypedError(w, err)
		return
	}
	s.logger.Info("generated report",
		logging.Field{Key: "fingerprint", Value: report.Fingerprint},
		logging.Field{Key: "kind", Value: string(report.Kind)})
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Kinds())
}

// Comparison

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := s.orchestrator.Compare(body.Reports, body.Settings)
	if err != nil {
		s.logger.Warn("comparing reports", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("compared reports",
		logging.Field{Key: "count", Value: len(body.Reports)},
		logging.Field{Key: "overall", Value: result.OverallSimilarity})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExportComparison(w http.ResponseWriter, r *http.Request) {
	format := compare.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = compare.FormatJSON
	}

	var body ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Result == nil {
		writeError(w, http.StatusBadRequest, "missing result")
		return
	}

	out, err := s.orchestrator.ExportComparison(body.Result, body.Settings, format)
	if err != nil {
		s.logger.Warn("exporting comparison", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := "application/json"
	switch format {
	case compare.FormatCSV:
		contentType = "text/csv"
	case compare.FormatText:
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// Jobs (REST)

func (s *Server) handleStartGenerateJob(w http.ResponseWriter, r *http.Request) {
	var req generator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	job, err := s.orchestrator.StartGenerateJob(context.Background(), req)
	if err != nil {
		s.logger.Warn("starting generate job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("started generate job",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "kind", Value: string(req.Kind)})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleStartBatchJob(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	job, err := s.orchestrator.StartBatchJob(context.Background(), body.Requests)
	if err != nil {
		s.logger.Warn("starting batch job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("started batch job",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "items", Value: len(body.Requests)})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.orchestrator.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

// Persisted reports

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	reports, err := s.orchestrator.ListReports(r.Context(), owner)
	if err != nil {
		s.logger.Warn("listing reports", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("listed reports",
		logging.Field{Key: "owner", Value: owner},
		logging.Field{Key: "count", Value: len(reports)})
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	reportID := chi.URLParam(r, "reportID")

	deleted, err := s.orchestrator.DeleteReport(r.Context(), reportID, owner)
	if err != nil {
		s.logger.Warn("deleting report", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	s.logger.Info("deleted report",
		logging.Field{Key: "owner", Value: owner},
		logging.Field{Key: "report_id", Value: reportID})
	writeJSON(w, http.StatusOK, DeletedResponse{Deleted: true})
}

// WebSockets

// handleJobWS streams a running job's events over a websocket until the job
// finishes or the client disconnects. A disconnect cancels the job.
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
}
