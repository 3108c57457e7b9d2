package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"smartlearning-backend/internal/models"
)

// ContentGenerator produces study material from a cleaned transcript.
// A summary is 200 to 300 words, key points number 5 to 8 and a quiz has
// exactly models.QuestionsPerQuiz questions.
type ContentGenerator interface {
	GenerateSummary(ctx context.Context, transcript string) (string, error)
	GenerateKeyPoints(ctx context.Context, transcript string) ([]models.KeyPoint, error)
	GenerateQuiz(ctx context.Context, transcript string) ([]models.QuizQuestion, error)
}

// availabilityChecker is implemented by generators that may be unusable
// because of missing configuration.
type availabilityChecker interface {
	Available() error
}

const (
	maxPromptTranscriptChars = 12000
	maxKeyPoints             = 8
	generalTimestamp         = "general"
)

// ValidateQuizQuestions rejects any quiz that does not have exactly
// models.QuestionsPerQuiz well-formed questions. Missing or unknown
// difficulty is normalised to medium.
func ValidateQuizQuestions(questions []models.QuizQuestion) ([]models.QuizQuestion, error) {
	if len(questions) != models.QuestionsPerQuiz {
		return nil, &QuizGenerationError{Reason: fmt.Sprintf("expected %d questions, got %d", models.QuestionsPerQuiz, len(questions))}
	}

	out := make([]models.QuizQuestion, len(questions))
	for i, q := range questions {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			return nil, &QuizGenerationError{Reason: fmt.Sprintf("question %d has no text", i)}
		}
		if len(q.Options) != models.OptionsPerQuestion {
			return nil, &QuizGenerationError{Reason: fmt.Sprintf("question %d has %d options", i, len(q.Options))}
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return nil, &QuizGenerationError{Reason: fmt.Sprintf("question %d option %d is empty", i, j)}
			}
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= models.OptionsPerQuestion {
			return nil, &QuizGenerationError{Reason: fmt.Sprintf("question %d has correct answer %d", i, q.CorrectAnswer)}
		}
		switch q.Difficulty {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			q.Difficulty = models.DifficultyMedium
		}
		out[i] = q
	}
	return out, nil
}

// generatedQuestion mirrors the JSON the model is asked to produce.
type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

// parseQuizJSON accepts either {"questions": [...]} or a bare array.
func parseQuizJSON(raw string) ([]models.QuizQuestion, error) {
	raw = stripCodeFence(raw)

	var wrapped struct {
		Questions []generatedQuestion `json:"questions"`
	}
	var items []generatedQuestion
	if obj := extractDelimited(raw, '{', '}'); obj != "" && json.Unmarshal([]byte(obj), &wrapped) == nil && wrapped.Questions != nil {
		items = wrapped.Questions
	} else if arr := extractDelimited(raw, '[', ']'); arr != "" {
		if err := json.Unmarshal([]byte(arr), &items); err != nil {
			return nil, &QuizGenerationError{Reason: "response is not valid JSON"}
		}
	} else {
		return nil, &QuizGenerationError{Reason: "response contains no JSON"}
	}

	questions := make([]models.QuizQuestion, 0, len(items))
	for i, it := range items {
		if it.CorrectAnswer == nil {
			return nil, &QuizGenerationError{Reason: fmt.Sprintf("question %d has no correct answer", i)}
		}
		questions = append(questions, models.QuizQuestion{
			Question:      it.Question,
			Options:       it.Options,
			CorrectAnswer: *it.CorrectAnswer,
			Explanation:   strings.TrimSpace(it.Explanation),
			Difficulty:    strings.ToLower(strings.TrimSpace(it.Difficulty)),
		})
	}
	return questions, nil
}

// parseKeyPoints reads a JSON array of {point, timestamp} and falls back
// to one point per bullet line.
func parseKeyPoints(raw string) []models.KeyPoint {
	raw = stripCodeFence(raw)

	var points []models.KeyPoint
	if arr := extractDelimited(raw, '[', ']'); arr != "" && json.Unmarshal([]byte(arr), &points) == nil {
		return normalizeKeyPoints(points)
	}
	return parseKeyPointsManually(raw)
}

var bulletPrefixRe = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)

func parseKeyPointsManually(content string) []models.KeyPoint {
	var points []models.KeyPoint
	for _, line := range strings.Split(content, "\n") {
		cleaned := strings.TrimSpace(bulletPrefixRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if utf8.RuneCountInString(cleaned) > 10 {
			points = append(points, models.KeyPoint{Point: cleaned, Timestamp: generalTimestamp})
		}
	}
	return normalizeKeyPoints(points)
}

func normalizeKeyPoints(points []models.KeyPoint) []models.KeyPoint {
	out := make([]models.KeyPoint, 0, len(points))
	for _, p := range points {
		p.Point = strings.TrimSpace(p.Point)
		if p.Point == "" {
			continue
		}
		if strings.TrimSpace(p.Timestamp) == "" {
			p.Timestamp = generalTimestamp
		}
		out = append(out, p)
		if len(out) == maxKeyPoints {
			break
		}
	}
	return out
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractDelimited returns the span from the first open to the last
// close delimiter, or "" when there is none.
func extractDelimited(s string, openCh, closeCh byte) string {
	start := strings.IndexByte(s, openCh)
	end := strings.LastIndexByte(s, closeCh)
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func truncateForPrompt(transcript string) string {
	if utf8.RuneCountInString(transcript) <= maxPromptTranscriptChars {
		return transcript
	}
	runes := []rune(transcript)
	return string(runes[:maxPromptTranscriptChars]) + " ...(truncated)"
}

// unavailableGenerator is installed when live generation is selected but
// no API key is configured. Every call fails with setup guidance.
type unavailableGenerator struct{}

func NewUnavailableGenerator() ContentGenerator { return unavailableGenerator{} }

var errGeneratorUnconfigured = &ConfigurationError{
	Message: "AI content generation is not configured. Set GEMINI_API_KEY to a valid Gemini API key " +
		"(create one in Google AI Studio) or set USE_MOCK_AI=true for local testing, then restart the server.",
}

func (unavailableGenerator) Available() error { return errGeneratorUnconfigured }

func (unavailableGenerator) GenerateSummary(context.Context, string) (string, error) {
	return "", errGeneratorUnconfigured
}

func (unavailableGenerator) GenerateKeyPoints(context.Context, string) ([]models.KeyPoint, error) {
	return nil, errGeneratorUnconfigured
}

func (unavailableGenerator) GenerateQuiz(context.Context, string) ([]models.QuizQuestion, error) {
	return nil, errGeneratorUnconfigured
}
