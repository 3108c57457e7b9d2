package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/middleware"
	"smartlearning-backend/internal/models"
)

type statsService interface {
	Dashboard(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error)
	Progress(ctx context.Context, userID uuid.UUID, period string) (*models.LearningProgress, error)
}

type profileUpdater interface {
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*models.User, error)
}

type UserHandler struct {
	stats    statsService
	profiles profileUpdater
	log      *logger.Logger
}

func NewUserHandler(stats statsService, profiles profileUpdater, log *logger.Logger) *UserHandler {
	return &UserHandler{stats: stats, profiles: profiles, log: log}
}

func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (h *UserHandler) Progress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.stats.Progress(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("period"))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, progress)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.profiles.UpdateUsername(r.Context(), middleware.GetUserID(r.Context()), req.Username)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"user": user})
}
