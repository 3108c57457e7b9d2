package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/middleware"
	"smartlearning-backend/internal/models"
)

type quizService interface {
	GetForLearner(ctx context.Context, videoID, userID uuid.UUID) (*models.LearnerQuiz, error)
	Submit(ctx context.Context, quizID, userID uuid.UUID, answers []models.AnswerSubmission, timeTaken int) (*models.AttemptResult, error)
	History(ctx context.Context, quizID, userID uuid.UUID) (*models.AttemptHistory, error)
	AttemptDetail(ctx context.Context, quizID, userID uuid.UUID, n int) (*models.AttemptDetail, error)
}

type QuizHandler struct {
	quizzes quizService
	log     *logger.Logger
}

func NewQuizHandler(quizzes quizService, log *logger.Logger) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, log: log}
}

func (h *QuizHandler) GetByVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseUUIDParam(w, r, "videoId", "Quiz not found")
	if !ok {
		return
	}

	quiz, err := h.quizzes.GetForLearner(r.Context(), videoID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{"quiz": quiz})
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	quizID, ok := parseUUIDParam(w, r, "quizId", "Quiz not found")
	if !ok {
		return
	}

	var req models.SubmitQuizRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.quizzes.Submit(r.Context(), quizID, middleware.GetUserID(r.Context()), req.Answers, req.TimeTaken)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{"result": result})
}

func (h *QuizHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	quizID, ok := parseUUIDParam(w, r, "quizId", "Quiz not found")
	if !ok {
		return
	}

	history, err := h.quizzes.History(r.Context(), quizID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusOK, history)
}

func (h *QuizHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	quizID, ok := parseUUIDParam(w, r, "quizId", "Quiz not found")
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "attemptNumber"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Attempt not found", r))
		return
	}

	detail, err := h.quizzes.AttemptDetail(r.Context(), quizID, middleware.GetUserID(r.Context()), n)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{"attempt": detail})
}
