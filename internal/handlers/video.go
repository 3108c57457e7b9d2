package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/middleware"
	"smartlearning-backend/internal/models"
	"smartlearning-backend/internal/services"
)

type learningService interface {
	ProcessVideo(ctx context.Context, userID uuid.UUID, videoURL string) (*models.ProcessResult, error)
	ProcessManualText(ctx context.Context, userID uuid.UUID, in services.ManualTranscriptInput) (*models.ProcessResult, error)
	ProcessFile(ctx context.Context, userID uuid.UUID, title, filename string, r io.Reader) (*models.ProcessResult, error)
	GetVideo(ctx context.Context, id, userID uuid.UUID) (*models.VideoDetail, error)
	ListHistory(ctx context.Context, userID uuid.UUID, page, limit int) (*models.VideoHistory, error)
	DeleteVideo(ctx context.Context, id, userID uuid.UUID) error
}

// multipart overhead on top of the file itself
const uploadFormSlack = 1 << 20

type VideoHandler struct {
	learning learningService
	log      *logger.Logger
}

func NewVideoHandler(learning learningService, log *logger.Logger) *VideoHandler {
	return &VideoHandler{learning: learning, log: log}
}

func (h *VideoHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessVideoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.learning.ProcessVideo(r.Context(), middleware.GetUserID(r.Context()), req.VideoURL)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusCreated, result)
}

func (h *VideoHandler) ProcessText(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessTextRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.learning.ProcessManualText(r.Context(), middleware.GetUserID(r.Context()), services.ManualTranscriptInput{
		Title:      req.Title,
		Transcript: req.Transcript,
		VideoURL:   req.VideoURL,
	})
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusCreated, result)
}

func (h *VideoHandler) ProcessFile(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > services.MaxUploadBytes+uploadFormSlack {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 10MB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadBytes+uploadFormSlack)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 10MB limit", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"file": "No file provided"}, r))
		return
	}
	defer file.Close()

	result, err := h.learning.ProcessFile(r.Context(), middleware.GetUserID(r.Context()),
		r.FormValue("title"), header.Filename, file)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusCreated, result)
}

func (h *VideoHandler) SupportedFormats(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]interface{}{
		"formats": []map[string]string{
			{"extension": ".txt", "mime_type": "text/plain", "description": "Plain Text"},
			{"extension": ".pdf", "mime_type": "application/pdf", "description": "PDF Document"},
			{"extension": ".docx", "mime_type": "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "description": "Word Document"},
		},
		"max_size_bytes": services.MaxUploadBytes,
	})
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.learning.ListHistory(r.Context(), middleware.GetUserID(r.Context()), page, limit)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusOK, history)
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "Video not found")
	if !ok {
		return
	}

	video, err := h.learning.GetVideo(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{"video": video})
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "Video not found")
	if !ok {
		return
	}

	if err := h.learning.DeleteVideo(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"message": "Video deleted successfully"})
}

// parseUUIDParam treats a malformed id like an unknown one.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFound, r))
		return uuid.Nil, false
	}
	return id, true
}
