package services

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

// InvalidReferenceError means the input does not look like a YouTube
// video URL.
type InvalidReferenceError struct{ Input string }

func (e *InvalidReferenceError) Error() string {
	return "Invalid YouTube URL. Please provide a valid youtube.com or youtu.be link."
}

type UnavailableReason string

const (
	ReasonKeyMissing UnavailableReason = "key_missing"
	ReasonNoCaptions UnavailableReason = "no_captions"
)

var unavailableHints = []string{
	"The video has no captions or subtitles",
	"The video is private or age-restricted",
	"The video is a live stream",
	"The YouTube API quota is exhausted",
	"The YouTube API key is invalid",
}

// TranscriptUnavailableError is returned once every caption strategy has
// been tried without producing usable text.
type TranscriptUnavailableError struct {
	VideoID string
	Reason  UnavailableReason
}

func (e *TranscriptUnavailableError) Hints() []string {
	if e.Reason == ReasonKeyMissing {
		return nil
	}
	return unavailableHints
}

func (e *TranscriptUnavailableError) Error() string {
	if e.Reason == ReasonKeyMissing {
		return "Could not fetch a transcript for this video. A YouTube Data API key is required for " +
			"videos whose captions are not publicly embedded: create a key in the Google Cloud Console, " +
			"enable the YouTube Data API v3, set YOUTUBE_API_KEY and restart the server. " +
			"Alternatively, paste the transcript manually."
	}
	return "Could not fetch a transcript for this video. Possible reasons: " +
		strings.Join(unavailableHints, "; ") + ". Try another video or paste the transcript manually."
}

type TranscriptTooShortError struct {
	Length int
	Min    int
}

func (e *TranscriptTooShortError) Error() string {
	return fmt.Sprintf("Transcript is too short (%d characters). At least %d characters are required.", e.Length, e.Min)
}

type TranscriptTooLongError struct {
	Length int
	Max    int
}

func (e *TranscriptTooLongError) Error() string {
	return fmt.Sprintf("Transcript is too long (%d characters). At most %d characters are supported.", e.Length, e.Max)
}

// QuizGenerationError means the generator produced a quiz that does not
// have the required shape. Such output is rejected, never repaired.
type QuizGenerationError struct{ Reason string }

func (e *QuizGenerationError) Error() string {
	return "Quiz generation failed: " + e.Reason
}

// GenerationError wraps a failed summary or key point generation call.
type GenerationError struct {
	Kind string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ConfigurationError carries setup guidance for a missing server setting.
type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string { return e.Message }

type UnsupportedFileError struct{ Message string }

func (e *UnsupportedFileError) Error() string { return e.Message }
