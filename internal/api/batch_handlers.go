package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/outreach/internal/domain"
	"github.com/ignite/outreach/internal/ingest"
	"github.com/ignite/outreach/internal/service/batch"
	"github.com/ignite/outreach/internal/service/outreach"
)

const maxUploadBytes = 10 << 20

// ProcessBatch accepts a CSV upload, either as a multipart form with a
// "file" field or as a raw text/csv body, and stores it as a new batch.
func (h *Handlers) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	name, content, err := readCSVUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.batches.CreateFromCSV(r.Context(), name, content)
	if err != nil {
		var verr *ingest.ValidationError
		switch {
		case errors.Is(err, batch.ErrEmptyCSV):
			respondError(w, http.StatusBadRequest, "CSV file is empty")
		case errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, verr.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to process CSV")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"batch_id":       result.Batch.ID,
		"csv_name":       result.Batch.CSVName,
		"total_contacts": result.Batch.TotalEmails,
		"skipped_rows":   result.Skipped,
	})
}

func readCSVUpload(r *http.Request) (name, content string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", "", errors.New("multipart upload must carry a \"file\" field")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", "", errors.New("failed to read uploaded file")
		}
		return header.Filename, string(data), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", "", errors.New("failed to read request body")
	}
	return "upload.csv", string(data), nil
}

type generateRequest struct {
	BatchID      string `json:"batch_id"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

// GenerateEmails runs the generation pipeline over a batch and returns the
// drafted emails for review alongside per-contact failures.
func (h *Handlers) GenerateEmails(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BatchID == "" {
		respondError(w, http.StatusBadRequest, "batch_id is required")
		return
	}

	report, err := h.pipeline.Generate(r.Context(), req.BatchID, req.CustomPrompt)
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrNotFound):
			respondError(w, http.StatusNotFound, "batch not found")
		case errors.Is(err, outreach.ErrNotConfigured):
			respondError(w, http.StatusBadRequest, "OpenAI API key not configured")
		default:
			respondError(w, http.StatusInternalServerError, "generation failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"generated_emails": report.Emails,
		"generated":        len(report.Emails),
		"total":            len(report.Emails) + len(report.Failures),
		"errors":           report.Failures,
	})
}

type sendRequest struct {
	BatchID         string                  `json:"batch_id"`
	GeneratedEmails []domain.GeneratedEmail `json:"generated_emails"`
}

// SendEmails delivers the reviewed emails of a batch.
func (h *Handlers) SendEmails(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BatchID == "" {
		respondError(w, http.StatusBadRequest, "batch_id is required")
		return
	}

	report, err := h.pipeline.Send(r.Context(), req.BatchID, req.GeneratedEmails)
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrNotFound):
			respondError(w, http.StatusNotFound, "batch not found")
		case errors.Is(err, outreach.ErrNoRecipients):
			respondError(w, http.StatusBadRequest, "no emails to send")
		case errors.Is(err, outreach.ErrNotConfigured):
			respondError(w, http.StatusBadRequest, "email credentials not configured")
		case errors.Is(err, outreach.ErrVerifyFailed):
			respondError(w, http.StatusBadRequest, "email credential verification failed")
		default:
			respondError(w, http.StatusInternalServerError, "send failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"delivered": report.Delivered,
		"total":     len(req.GeneratedEmails),
		"errors":    report.Failures,
	})
}

// BatchHistory lists all batches newest-first with their aggregate stats.
func (h *Handlers) BatchHistory(w http.ResponseWriter, r *http.Request) {
	batches, err := h.batches.History(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"batches": batches})
}

// BatchDetails returns one batch with its per-recipient tracking records.
func (h *Handlers) BatchDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batchID")
	b, records, err := h.batches.Details(r.Context(), id)
	if err != nil {
		if errors.Is(err, batch.ErrNotFound) {
			respondError(w, http.StatusNotFound, "batch not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load batch")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"batch":   b,
		"records": records,
	})
}

// DeleteBatch removes a batch and everything hanging off it.
func (h *Handlers) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batchID")
	if err := h.batches.Delete(r.Context(), id); err != nil {
		if errors.Is(err, batch.ErrNotFound) {
			respondError(w, http.StatusNotFound, "batch not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete batch")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
