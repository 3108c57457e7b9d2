package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusFailed     = "failed"
)

const (
	SourceYouTube = "youtube"
	SourceManual  = "manual"
	SourceFile    = "file"
)

// ManualVideoURL marks records whose transcript was supplied by the user.
const ManualVideoURL = "manual-input"

// Video is a learning record: one processed transcript with its
// generated study content and quiz.
type Video struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	VideoURL        string             `json:"video_url"`
	ExternalID      string             `json:"external_id"`
	Title           string             `json:"title"`
	ThumbnailURL    *string            `json:"thumbnail_url"`
	DurationSeconds *int               `json:"duration_seconds"`
	Transcript      Transcript         `json:"transcript"`
	Content         GeneratedContent   `json:"content"`
	QuizID          *uuid.UUID         `json:"quiz_id"`
	Metadata        ProcessingMetadata `json:"metadata"`
	Status          string             `json:"status"`
	Error           *ProcessingError   `json:"error,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type Transcript struct {
	Raw     string `json:"raw"`
	Cleaned string `json:"cleaned"`
}

type KeyPoint struct {
	Point     string `json:"point"`
	Timestamp string `json:"timestamp"`
}

type GeneratedContent struct {
	Summary     string     `json:"summary"`
	KeyPoints   []KeyPoint `json:"key_points"`
	GeneratedAt *time.Time `json:"generated_at"`
}

type ProcessingMetadata struct {
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	TranscriptLength int    `json:"transcript_length"`
	Language         string `json:"language"`
	Source           string `json:"source"`
	Strategy         string `json:"strategy,omitempty"`
}

type ProcessingError struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// VideoMetadata is best-effort descriptive data about a hosted video.
type VideoMetadata struct {
	Title           string
	ThumbnailURL    string
	DurationSeconds int
}

// VideoSummary is the list view of a learning record.
type VideoSummary struct {
	ID           uuid.UUID    `json:"id"`
	VideoURL     string       `json:"video_url"`
	ExternalID   string       `json:"external_id"`
	Title        string       `json:"title"`
	ThumbnailURL *string      `json:"thumbnail_url"`
	Summary      string       `json:"summary"`
	KeyPoints    []KeyPoint   `json:"key_points"`
	Status       string       `json:"status"`
	Quiz         *QuizSummary `json:"quiz,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type QuizSummary struct {
	ID             uuid.UUID `json:"id"`
	TotalQuestions int       `json:"total_questions"`
	AttemptCount   int       `json:"attempt_count"`
}

// VideoDetail is a learning record with its quiz in learner form.
type VideoDetail struct {
	*Video
	Quiz *LearnerQuiz `json:"quiz"`
}

type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalVideos int  `json:"total_videos"`
	HasMore     bool `json:"has_more"`
}

type VideoHistory struct {
	Videos     []VideoSummary `json:"videos"`
	Pagination Pagination     `json:"pagination"`
}

type ProcessVideoRequest struct {
	VideoURL string `json:"video_url" validate:"required,max=2048"`
}

type ProcessTextRequest struct {
	Title      string `json:"title" validate:"required,max=300"`
	Transcript string `json:"transcript" validate:"required"`
	VideoURL   string `json:"video_url" validate:"omitempty,max=2048"`
}

// ProcessResult is returned after a record and its quiz are stored.
type ProcessResult struct {
	Video ProcessedVideo `json:"video"`
	Quiz  ProcessedQuiz  `json:"quiz"`
}

type ProcessedVideo struct {
	ID         uuid.UUID  `json:"id"`
	VideoURL   string     `json:"video_url"`
	ExternalID string     `json:"external_id"`
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	KeyPoints  []KeyPoint `json:"key_points"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ProcessedQuiz struct {
	ID            uuid.UUID `json:"id"`
	QuestionCount int       `json:"question_count"`
}
