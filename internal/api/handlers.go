// Package api serves the upload, status, summary and report endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/split-proj/atmsplit/internal/aggregate"
	"github.com/split-proj/atmsplit/internal/format"
	"github.com/split-proj/atmsplit/internal/ingest"
	"github.com/split-proj/atmsplit/internal/logger"
	"github.com/split-proj/atmsplit/internal/report"
)

//go:generate mockgen -destination=mocks/mock_processor.go -package=mocks -source=handlers.go Processor

// Processor runs uploads and reports on their progress.
type Processor interface {
	Submit(ctx context.Context, filename string, content []byte) string
	Status(id string) (*ingest.Result, error)
}

// Handler serves the API.
type Handler struct {
	proc           Processor
	formatter      *format.Formatter
	grouping       aggregate.Options
	maxUploadBytes int64
}

// NewHandler returns a Handler.
func NewHandler(proc Processor, f *format.Formatter, grouping aggregate.Options, maxUploadBytes int64) *Handler {
	if f == nil {
		f = format.Default
	}
	return &Handler{proc: proc, formatter: f, grouping: grouping, maxUploadBytes: maxUploadBytes}
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendJSONError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, map[string]string{"error": message})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// UploadResponse is returned for an accepted upload.
type UploadResponse struct {
	ProcessingID string `json:"processing_id"`
	Message      string `json:"message"`
}

// HandleUpload accepts a multipart "file" field and starts processing it.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		log.Warn("failed to parse upload", "error", err)
		sendJSONError(w, fmt.Sprintf("could not read upload (max %d MB)", h.maxUploadBytes>>20), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSONError(w, "no file part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		sendJSONError(w, "no selected file", http.StatusBadRequest)
		return
	}
	if header.Size > h.maxUploadBytes {
		sendJSONError(w, fmt.Sprintf("file too large (max %d MB)", h.maxUploadBytes>>20), http.StatusBadRequest)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		log.Error("reading upload", "error", err)
		sendJSONError(w, "could not read file", http.StatusBadRequest)
		return
	}
	if len(bytes.TrimSpace(content)) == 0 {
		sendJSONError(w, "file is empty", http.StatusBadRequest)
		return
	}
	if bytes.IndexByte(content, 0) >= 0 {
		sendJSONError(w, "file appears to be binary", http.StatusBadRequest)
		return
	}

	id := h.proc.Submit(r.Context(), header.Filename, content)
	log.Info("upload received", "filename", header.Filename, "bytes", len(content), "processingID", id)
	sendJSON(w, http.StatusOK, UploadResponse{ProcessingID: id, Message: "file upload started"})
}

func (h *Handler) result(w http.ResponseWriter, r *http.Request) (*ingest.Result, bool) {
	id := chi.URLParam(r, "id")
	res, err := h.proc.Status(id)
	if errors.Is(err, ingest.ErrNotFound) {
		sendJSONError(w, "processing id not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("status lookup failed", "processingID", id, "error", err)
		sendJSONError(w, "status lookup failed", http.StatusInternalServerError)
		return nil, false
	}
	return res, true
}

// HandleStatus returns the processing state and, once complete, the result.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	res, ok := h.result(w, r)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, res)
}

// SummaryResponse is the formatted summary of a completed upload.
type SummaryResponse struct {
	ProcessingID string                      `json:"processing_id"`
	PaymentTypes []string                    `json:"payment_types"`
	Summary      format.View                 `json:"summary"`
	Problems     []aggregate.ValidationError `json:"problems,omitempty"`
}

// HandleSummary aggregates a completed upload, optionally filtered to one
// payment type (?filter=) and narrowed by a search (?q=).
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := h.result(w, r)
	if !ok {
		return
	}
	if res.Status != ingest.StatusCompleted {
		sendJSONError(w, fmt.Sprintf("processing is %s", res.Status), http.StatusConflict)
		return
	}

	records := aggregate.Search(res.Records, r.URL.Query().Get("q"))
	opts := h.grouping
	opts.Filter = r.URL.Query().Get("filter")
	s := aggregate.Aggregate(records, opts)

	problems := aggregate.Validate(s)
	if len(problems) > 0 {
		logger.FromContext(r.Context()).Warn("summary failed validation", "processingID", res.ID, "problems", len(problems))
	}
	sendJSON(w, http.StatusOK, SummaryResponse{
		ProcessingID: res.ID,
		PaymentTypes: aggregate.PaymentTypes(res.Records),
		Summary:      h.formatter.View(s),
		Problems:     problems,
	})
}

// HandleReport builds the report archive from posted processed data.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var in report.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4*h.maxUploadBytes)).Decode(&in); err != nil {
		sendJSONError(w, "invalid data format received", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := report.Build(&buf, in, h.formatter); err != nil {
		log.Error("generating report", "error", err)
		sendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	name := report.Filename(in.OriginalFilename)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error("writing report", "error", err)
	}
	log.Info("report generated", "filename", name, "groups", len(in.ProcessedData))
}
