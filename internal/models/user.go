package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID   `json:"id"`
	Username        string      `json:"username"`
	Email           string      `json:"email"`
	PasswordHash    string      `json:"-"`
	Preferences     Preferences `json:"preferences"`
	LearningHistory []uuid.UUID `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	LastLoginAt     *time.Time  `json:"last_login_at"`
}

type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", Language: "en"}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanumunderscore"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128,containsany=0123456789"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdatePreferencesRequest struct {
	Theme    *string `json:"theme" validate:"omitempty,oneof=light dark"`
	Language *string `json:"language" validate:"omitempty,min=2,max=10"`
}

type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanumunderscore"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type Profile struct {
	User            *User          `json:"user"`
	LearningHistory []VideoSummary `json:"learning_history"`
}
