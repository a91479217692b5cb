package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quillworks/redline/core/docx"
	"github.com/quillworks/redline/core/errors"
	"github.com/quillworks/redline/core/lang"
	"github.com/quillworks/redline/core/notes"
	"github.com/quillworks/redline/core/revision"
	"github.com/quillworks/redline/internal/assistant"
	"github.com/quillworks/redline/internal/docstore"
	"github.com/quillworks/redline/internal/logging"
	"github.com/quillworks/redline/internal/server"
	"github.com/quillworks/redline/internal/validation"
)

// docxContentType is the MIME type for .docx downloads.
const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ProofreadRequest is the request body for text proofreading.
type ProofreadRequest struct {
	Text        string  `json:"text"`
	Language    string  `json:"language,omitempty"`
	Passes      int     `json:"passes,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// ProofreadResult is the response payload for text proofreading.
type ProofreadResult struct {
	Original   string        `json:"original"`
	Corrected  string        `json:"corrected_text"`
	Mistakes   []string      `json:"mistakes"`
	Notes      []notes.Note  `json:"notes"`
	Language   lang.Language `json:"language"`
	Passes     int           `json:"passes"`
	Meaningful bool          `json:"meaningful"`
}

// ExportRequest is the request body for rendering corrected text to docx.
type ExportRequest struct {
	Original  string   `json:"original"`
	Corrected string   `json:"corrected"`
	Mistakes  []string `json:"mistakes,omitempty"`
	Filename  string   `json:"filename,omitempty"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Documents   int64  `json:"documents"`
	StyleGuides int    `json:"style_guides"`
	Clients     int    `json:"ws_clients"`
	Driver      string `json:"sqlite_driver,omitempty"`
}

// apiVersion is stamped into response metadata; New overwrites it from
// the server configuration.
var apiVersion = "dev"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}
	if r.Method != http.MethodGet {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"name":    "Redline API",
		"version": s.cfg.version(),
		"endpoints": []string{
			"GET /health",
			"GET /metrics",
			"POST /api/proofread",
			"POST /api/proofread-docx",
			"POST /api/export",
			"GET /api/download/:id",
			"GET /api/documents",
			"GET /api/documents/stats",
			"GET /api/documents/:id",
			"DELETE /api/documents/:id",
			"GET /api/jobs",
			"GET /api/jobs/:id",
			"DELETE /api/jobs/:id",
			"GET /api/style-guides",
			"GET /api/style-guides/bundle",
			"GET /api/style-guides/:name",
			"GET /api/style-guides/:name/html",
			"GET /api/admin/sessions",
			"POST /api/admin/sessions/reset",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	info := HealthInfo{
		Status:  "healthy",
		Version: s.cfg.version(),
		Uptime:  time.Since(s.startTime).String(),
		Clients: s.hub.ClientCount(),
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		info.Status = "degraded"
	} else {
		info.Documents = stats.Documents
		info.Driver = stats.Driver
	}
	if guides, err := s.guides.List(); err == nil {
		info.StyleGuides = len(guides)
	}

	respond(w, r, http.StatusOK, info)
}

func (s *Server) handleProofread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.maxUpload())

	var req ProofreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body exceeds size limit")
			return
		}
		parseErr := errors.NewParse("JSON", "request body", err.Error())
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", parseErr.Error())
		return
	}

	opts := assistant.Options{
		Passes:      req.Passes,
		Temperature: req.Temperature,
		Language:    lang.Language(req.Language),
		Progress: func(stage string, pct int) {
			s.hub.BroadcastProgress("proofread", stage, stageMessage(stage), pct)
		},
	}

	start := time.Now()
	outcome, err := s.proof.Proofread(r.Context(), req.Text, opts)
	s.metrics.ObserveProofread(languageLabel(outcome, req.Language), err, time.Since(start))
	if err != nil {
		respondCoreError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, ProofreadResult{
		Original:   outcome.Original,
		Corrected:  outcome.Corrected,
		Mistakes:   outcome.Mistakes,
		Notes:      outcome.Notes,
		Language:   outcome.Language,
		Passes:     outcome.Passes,
		Meaningful: revision.HasMeaningfulChanges(outcome.Original, outcome.Corrected),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.maxUpload())

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body exceeds size limit")
			return
		}
		parseErr := errors.NewParse("JSON", "request body", err.Error())
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", parseErr.Error())
		return
	}
	if strings.TrimSpace(req.Original) == "" || strings.TrimSpace(req.Corrected) == "" {
		respondError(w, r, http.StatusBadRequest, "MISSING_PARAMS", "original and corrected are required")
		return
	}

	parsed := notes.ParseAll(req.Mistakes)
	data, mode, err := renderDocument(req.Original, req.Corrected, parsed)
	if err != nil {
		respondCoreError(w, r, err)
		return
	}

	name := exportFilename(req.Filename)
	id, err := s.store.Put(r.Context(), data, data, docstore.Document{
		Filename:  name,
		Language:  lang.Detect(req.Corrected),
		Mode:      mode,
		Original:  req.Original,
		Corrected: req.Corrected,
		Notes:     parsed,
	})
	if err != nil {
		respondCoreError(w, r, err)
		return
	}
	s.metrics.DocumentsStored.Inc()

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", contentDisposition(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Document-ID", id)
	w.Write(data)
}

func (s *Server) handleProofreadDocx(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.maxUpload())

	if err := r.ParseMultipartForm(s.cfg.maxUpload()); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Upload exceeds size limit")
			return
		}
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "MISSING_FILE", "No file uploaded")
		return
	}
	defer file.Close()

	filename, err := validation.SanitizeFilename(header.Filename)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename provided")
		return
	}

	if ct := header.Header.Get("Content-Type"); ct != "" && !server.ValidateContentType(ct, server.AllowedUploadContentTypes) {
		respondError(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA", "Unsupported upload content type")
		return
	}

	upload, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "FILE_PROCESSING_ERROR", "Failed to read upload")
		return
	}
	if err := validation.ValidateDocxUpload(filename, upload); err != nil {
		if errors.Is(err, validation.ErrNotDocx) {
			respondError(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA", err.Error())
			return
		}
		respondError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error())
		return
	}
	s.metrics.UploadBytes.Add(float64(len(upload)))
	logging.DocumentEvent("upload_received", len(upload), "filename", filename)

	if r.URL.Query().Get("async") == "true" {
		job := s.jobs.Create(filename)
		go s.runProofreadJob(job.ID, filename, upload)
		respond(w, r, http.StatusAccepted, map[string]string{
			"job_id":     job.ID,
			"status_url": "/api/jobs/" + job.ID,
		})
		return
	}

	report := func(stage string, pct int) {
		s.hub.BroadcastProgress("upload", stage, stageMessage(stage), pct)
	}
	result, err := s.proofreadDocument(r.Context(), filename, upload, report)
	if err != nil {
		s.hub.BroadcastError("upload", err.Error())
		respondCoreError(w, r, err)
		return
	}
	s.hub.BroadcastComplete("upload", "Proofreading completed")
	respond(w, r, http.StatusOK, result)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	jobs := s.jobs.List()
	respondList(w, r, jobs, len(jobs))
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" {
		respondError(w, r, http.StatusBadRequest, "MISSING_ID", "Job ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		job, ok := s.jobs.Get(id)
		if !ok {
			respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Job not found")
			return
		}
		respond(w, r, http.StatusOK, job)
	case http.MethodDelete:
		if err := s.jobs.Cancel(id); err != nil {
			if _, ok := s.jobs.Get(id); !ok {
				respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Job not found")
				return
			}
			respondError(w, r, http.StatusConflict, "JOB_NOT_CANCELLABLE", err.Error())
			return
		}
		respond(w, r, http.StatusOK, map[string]string{"message": "Job cancelled"})
	default:
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/download/")
	if id == "" {
		respondError(w, r, http.StatusBadRequest, "MISSING_ID", "Document ID is required")
		return
	}

	filename, data, err := s.store.File(r.Context(), id)
	if err != nil {
		respondCoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", contentDisposition(downloadFilename(filename)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	summaries, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		respondCoreError(w, r, err)
		return
	}
	respondList(w, r, summaries, len(summaries))
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if rest == "" {
		respondError(w, r, http.StatusBadRequest, "MISSING_ID", "Document ID is required")
		return
	}

	if rest == "stats" {
		if r.Method != http.MethodGet {
			respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
			return
		}
		stats, err := s.store.Stats(r.Context())
		if err != nil {
			respondCoreError(w, r, err)
			return
		}
		respond(w, r, http.StatusOK, stats)
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := s.store.Get(r.Context(), rest)
		if err != nil {
			respondCoreError(w, r, err)
			return
		}
		respond(w, r, http.StatusOK, doc)
	case http.MethodDelete:
		if err := s.store.Delete(r.Context(), rest); err != nil {
			respondCoreError(w, r, err)
			return
		}
		respond(w, r, http.StatusOK, map[string]string{"message": "Document deleted"})
	default:
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

func (s *Server) handleStyleGuides(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	guides, err := s.guides.List()
	if err != nil {
		respondCoreError(w, r, err)
		return
	}
	respondList(w, r, guides, len(guides))
}

func (s *Server) handleStyleGuideByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/style-guides/")
	if rest == "" {
		respondError(w, r, http.StatusBadRequest, "MISSING_NAME", "Style guide name is required")
		return
	}

	if rest == "bundle" {
		var buf bytes.Buffer
		if err := s.guides.Bundle(&buf); err != nil {
			respondCoreError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/x-xz")
		w.Header().Set("Content-Disposition", contentDisposition("style-guides.tar.xz"))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Write(buf.Bytes())
		return
	}

	if name, ok := strings.CutSuffix(rest, "/html"); ok {
		html, err := s.guides.HTML(name)
		if err != nil {
			respondCoreError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html)
		return
	}

	md, err := s.guides.Load(rest)
	if err != nil {
		respondCoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(md)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	sessions := s.sessions.Info()
	respondList(w, r, sessions, len(sessions))
}

func (s *Server) handleSessionsReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	language := r.URL.Query().Get("language")
	if language == "" {
		if err := s.sessions.ResetAll(); err != nil {
			respondCoreError(w, r, err)
			return
		}
		logging.SecurityEvent("sessions_reset", "api", "scope", "all")
		respond(w, r, http.StatusOK, map[string]string{"message": "All sessions reset"})
		return
	}

	l := lang.Language(language)
	if !l.Valid() {
		respondError(w, r, http.StatusBadRequest, "INVALID_INPUT", "unknown language "+language)
		return
	}
	if err := s.sessions.Reset(l); err != nil {
		respondCoreError(w, r, err)
		return
	}
	logging.SecurityEvent("sessions_reset", "api", "scope", language)
	respond(w, r, http.StatusOK, map[string]string{
		"message":  "Session reset",
		"language": language,
	})
}

// proofreadDocument runs the docx pipeline: extract text, proofread,
// render the corrected document and store it for download.
func (s *Server) proofreadDocument(ctx context.Context, filename string, upload []byte, report assistant.ProgressFunc) (*JobResult, error) {
	text, err := docx.ExtractText(upload)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	outcome, err := s.proof.Proofread(ctx, text, assistant.Options{Progress: report})
	s.metrics.ObserveProofread(languageLabel(outcome, ""), err, time.Since(start))
	if err != nil {
		return nil, err
	}

	data, mode, err := renderDocument(outcome.Original, outcome.Corrected, outcome.Notes)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Put(ctx, upload, data, docstore.Document{
		Filename:  filename,
		Language:  outcome.Language,
		Mode:      mode,
		Original:  outcome.Original,
		Corrected: outcome.Corrected,
		Notes:     outcome.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.DocumentsStored.Inc()

	return &JobResult{
		DocumentID:    id,
		DownloadURL:   "/api/download/" + id,
		CorrectedText: outcome.Corrected,
		Mistakes:      outcome.Mistakes,
		Language:      string(outcome.Language),
		RenderMode:    string(mode),
	}, nil
}

// runProofreadJob drives an async job, reporting progress to the job
// store and to websocket subscribers.
func (s *Server) runProofreadJob(jobID, filename string, upload []byte) {
	ctx := s.jobs.Context(jobID)
	s.jobs.Update(jobID, JobStatusProcessing, "", 0)
	s.metrics.JobsActive.Inc()
	defer s.metrics.JobsActive.Dec()

	report := func(stage string, pct int) {
		s.jobs.Update(jobID, JobStatusProcessing, stage, pct)
		s.hub.BroadcastProgress(jobID, stage, stageMessage(stage), pct)
	}
	result, err := s.proofreadDocument(ctx, filename, upload, report)
	if err != nil {
		s.jobs.Fail(jobID, err.Error())
		s.hub.BroadcastError(jobID, err.Error())
		return
	}
	if err := s.jobs.Complete(jobID, result); err != nil {
		// The job was cancelled while the result was being stored.
		return
	}
	s.hub.BroadcastComplete(jobID, "Proofreading completed")
}

// renderDocument produces the corrected docx, degrading through simpler
// layouts when tracked-changes rendering fails.
func renderDocument(original, corrected string, parsed []notes.Note) ([]byte, docstore.RenderMode, error) {
	if !revision.HasMeaningfulChanges(original, corrected) {
		data, err := revision.BuildSummaryDocument(original, original, []string{revision.NoChangesNote})
		return data, docstore.RenderNoChanges, err
	}

	texts := notes.Texts(parsed)
	data, err := revision.RenderTrackedChanges(original, corrected, texts, notes.Citations(parsed))
	if err == nil {
		return data, docstore.RenderTracked, nil
	}
	logging.Warn("tracked changes render failed, falling back", "error", err.Error())

	if data, err = revision.BuildSummaryDocument(original, corrected, texts); err == nil {
		return data, docstore.RenderSummary, nil
	}
	logging.Warn("summary render failed, falling back", "error", err.Error())

	data, err = revision.BuildMinimalDocument(original, corrected, texts)
	return data, docstore.RenderMinimal, err
}

// stageMessage maps a proofreading stage to a human-readable progress line.
func stageMessage(stage string) string {
	switch stage {
	case assistant.StageDetect:
		return "Detecting language"
	case assistant.StageProtect:
		return "Shielding numerals"
	case assistant.StageFirstPass:
		return "Running first proofreading pass"
	case assistant.StageSecondPass:
		return "Reviewing with language specialist"
	case assistant.StageStyleRules:
		return "Applying style guide rules"
	case assistant.StageDone:
		return "Proofreading complete"
	}
	return stage
}

// languageLabel picks the metrics label for a proofread run, falling back
// to the requested language when the run failed before detection.
func languageLabel(outcome *assistant.Outcome, requested string) string {
	if outcome != nil {
		return string(outcome.Language)
	}
	if requested != "" {
		return requested
	}
	return "unknown"
}

// Helper functions

func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    newMeta(r),
	})
}

func respondList(w http.ResponseWriter, r *http.Request, data interface{}, total int) {
	meta := newMeta(r)
	meta.Total = total
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: newMeta(r),
	})
}

// respondCoreError maps domain errors to HTTP status codes and envelope
// error codes. Unclassified errors are logged and reported generically.
func respondCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound      *errors.NotFoundError
		tooLarge      *errors.TooLargeError
		invalid       *errors.ValidationError
		parse         *errors.ParseError
		extraction    *errors.ExtractionError
		unsupported   *errors.UnsupportedError
		serialization *errors.SerializationError
	)
	switch {
	case errors.As(err, &notFound) || errors.Is(err, errors.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &tooLarge) || errors.Is(err, errors.ErrTooLarge):
		respondError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error())
	case errors.As(err, &invalid) || errors.As(err, &parse) || errors.As(err, &extraction) || errors.Is(err, errors.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.As(err, &unsupported) || errors.Is(err, errors.ErrUnsupported):
		respondError(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA", err.Error())
	case assistant.IsTransient(err) || assistant.IsFatal(err):
		respondError(w, r, http.StatusBadGateway, "ASSISTANT_UNAVAILABLE", err.Error())
	case errors.As(err, &serialization) || errors.Is(err, errors.ErrSerialization):
		respondError(w, r, http.StatusInternalServerError, "SERIALIZATION_FAILED", err.Error())
	default:
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func newMeta(r *http.Request) *APIMeta {
	return &APIMeta{
		RequestID: logging.GetRequestID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   apiVersion,
	}
}

func writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
