package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/models"
	"smartlearning-backend/internal/repository"
)

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs models.Preferences) error
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error
}

type recentVideos interface {
	ListCompletedByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.VideoSummary, int, error)
}

type tokenIssuer interface {
	GenerateToken(userID uuid.UUID, username string) (string, error)
}

const (
	bcryptCost          = 12
	profileHistoryLimit = 10
)

type AuthService struct {
	users  userStore
	videos recentVideos
	tokens tokenIssuer
	log    *logger.Logger
}

func NewAuthService(users userStore, videos recentVideos, tokens tokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{users: users, videos: videos, tokens: tokens, log: log.With("component", "auth")}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	// Check uniqueness
	if err := s.ensureFree(ctx, email, username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Preferences:  models.DefaultPreferences(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "User with this email or username already exists"}
		}
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthService) ensureFree(ctx context.Context, email, username string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return &ConflictError{Message: "User with this email or username already exists"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return &ConflictError{Message: "User with this email or username already exists"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.AuthResponse{User: user, Token: token}, nil
}

// Profile returns the user with their most recent completed records.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, _, err := s.videos.ListCompletedByUser(ctx, userID, profileHistoryLimit, 0)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.VideoSummary{}
	}
	return &models.Profile{User: user, LearningHistory: history}, nil
}

// UpdatePreferences applies only the fields present in the request.
func (s *AuthService) UpdatePreferences(ctx context.Context, userID uuid.UUID, req models.UpdatePreferencesRequest) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Theme != nil {
		user.Preferences.Theme = *req.Theme
	}
	if req.Language != nil {
		user.Preferences.Language = strings.TrimSpace(*req.Language)
	}

	if err := s.users.UpdatePreferences(ctx, userID, user.Preferences); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*models.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Username == username {
		return user, nil
	}

	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing.ID != userID {
		return nil, &ConflictError{Message: "Username already taken"}
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.users.UpdateUsername(ctx, userID, username); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, &ConflictError{Message: "Username already taken"}
		case errors.Is(err, repository.ErrNotFound):
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}

	user.Username = username
	return user, nil
}

func (s *AuthService) getUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
