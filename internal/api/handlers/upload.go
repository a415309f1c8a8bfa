package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
)

// multipartOverhead is the room left for multipart framing around the file.
const multipartOverhead = 1 << 20

// UploadHandler handles workbook uploads and the upload archive.
type UploadHandler struct {
	uploadService *service.UploadService
	maxBytes      int64
}

// NewUploadHandler creates a new UploadHandler. maxBytes caps the size of an
// uploaded file; zero or less means no cap.
func NewUploadHandler(uploadService *service.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
	}
}

// UploadResponse is returned after a workbook has been parsed and loaded.
type UploadResponse struct {
	Message string `json:"message"`
	service.UploadResult
}

// Upload handles POST requests carrying a workbook in the multipart "file"
// field. The parsed holdings replace the current portfolio.
//
// Endpoint: POST /api/portfolio/upload
// Response: 200 OK with UploadResponse
// Error: 400 Bad Request for a missing, oversized or unreadable file
// Error: 500 Internal Server Error if the upload cannot be archived
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondServiceError(w, apperrors.ErrFileTooLarge, "")
			return
		}
		respondServiceError(w, apperrors.ErrNoFileProvided, "")
		return
	}
	defer file.Close()

	var src io.Reader = file
	if h.maxBytes > 0 {
		src = io.LimitReader(file, h.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		respondServiceError(w, err, "failed to read uploaded file")
		return
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		respondServiceError(w, apperrors.ErrFileTooLarge, "")
		return
	}

	result, err := h.uploadService.Accept(r.Context(), header.Filename, data)
	if err != nil {
		respondServiceError(w, err, "failed to process file")
		return
	}

	respondJSON(w, http.StatusOK, UploadResponse{
		Message:      "File uploaded successfully",
		UploadResult: result,
	})
}

// List handles GET requests for the archived uploads, newest first by default.
//
// Endpoint: GET /api/uploads
// Query params: since (YYYY-MM-DD or RFC3339), sort_dir (asc|desc), limit (1-100)
// Response: 200 OK with []model.Upload
// Error: 400 Bad Request for invalid query parameters
// Error: 500 Internal Server Error if retrieval fails
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters, err := request.ParseUploadFilters(q.Get("since"), q.Get("sort_dir"), q.Get("limit"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	uploads, err := h.uploadService.List(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve uploads")
		return
	}
	respondJSON(w, http.StatusOK, uploads)
}

// Restore handles POST requests that reload an archived upload as the
// current portfolio.
//
// Endpoint: POST /api/uploads/{uuid}/restore
// Response: 200 OK with UploadResponse
// Error: 404 Not Found if the upload does not exist
// Error: 500 Internal Server Error if the payload cannot be decrypted
func (h *UploadHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	result, err := h.uploadService.Restore(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to restore upload")
		return
	}

	respondJSON(w, http.StatusOK, UploadResponse{
		Message:      "Upload restored successfully",
		UploadResult: result,
	})
}
