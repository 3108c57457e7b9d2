package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/middleware"
	"smartlearning-backend/internal/models"
	"smartlearning-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"status": "success", "data": data})
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return errorRespWithFields(code, message, nil, r)
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Status: "error",
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: middleware.GetRequestID(r.Context()),
		},
	}
}

type transcriptErrorResponse struct {
	Status string          `json:"status"`
	Error  transcriptError `json:"error"`
}

type transcriptError struct {
	models.APIError
	VideoID string   `json:"video_id"`
	Reason  string   `json:"reason"`
	Hints   []string `json:"possible_reasons,omitempty"`
}

func handleServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var (
		validation   *services.ValidationError
		invalidRef   *services.InvalidReferenceError
		unavailable  *services.TranscriptUnavailableError
		tooShort     *services.TranscriptTooShortError
		tooLong      *services.TranscriptTooLongError
		quizGen      *services.QuizGenerationError
		generation   *services.GenerationError
		notFound     *services.NotFoundError
		conflict     *services.ConflictError
		unauthorized *services.UnauthorizedError
		configErr    *services.ConfigurationError
		unsupported  *services.UnsupportedFileError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", validation.Fields, r))
	case errors.As(err, &invalidRef):
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_REFERENCE", invalidRef.Error(), r))
	case errors.As(err, &unavailable):
		base := errorResp("TRANSCRIPT_UNAVAILABLE", unavailable.Error(), r)
		writeJSON(w, http.StatusUnprocessableEntity, transcriptErrorResponse{
			Status: base.Status,
			Error: transcriptError{
				APIError: base.Error,
				VideoID:  unavailable.VideoID,
				Reason:   string(unavailable.Reason),
				Hints:    unavailable.Hints(),
			},
		})
	case errors.As(err, &tooShort):
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("TRANSCRIPT_TOO_SHORT", tooShort.Error(), r))
	case errors.As(err, &tooLong):
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("TRANSCRIPT_TOO_LONG", tooLong.Error(), r))
	case errors.As(err, &quizGen):
		log.Warn("quiz generation rejected", "request_id", middleware.GetRequestID(r.Context()), "reason", quizGen.Reason)
		writeJSON(w, http.StatusBadGateway, errorResp("QUIZ_GENERATION_FAILED", "Failed to generate a valid quiz. Please try again.", r))
	case errors.As(err, &generation):
		log.Warn("content generation failed", "request_id", middleware.GetRequestID(r.Context()), "kind", generation.Kind, "error", generation.Err)
		writeJSON(w, http.StatusBadGateway, errorResp("GENERATION_FAILED", "Failed to generate study content. Please try again.", r))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFound.Message, r))
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", conflict.Message, r))
	case errors.As(err, &unauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", unauthorized.Message, r))
	case errors.As(err, &configErr):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("SERVICE_NOT_CONFIGURED", configErr.Message, r))
	case errors.As(err, &unsupported):
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FILE", unsupported.Message, r))
	case errors.Is(err, context.Canceled):
		// client went away
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResp("TIMEOUT", "The request took too long. Please try again.", r))
	default:
		log.Error("unhandled service error", "request_id", middleware.GetRequestID(r.Context()), "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
