package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/metrics"
	"smartlearning-backend/internal/models"
	"smartlearning-backend/internal/repository"
)

type quizStore interface {
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Quiz, error)
	GetByVideoForUser(ctx context.Context, videoID, userID uuid.UUID) (*models.Quiz, error)
	AppendAttempt(ctx context.Context, id, userID uuid.UUID, attempt models.QuizAttempt) (int, error)
}

type QuizService struct {
	store quizStore
	log   *logger.Logger
	now   func() time.Time
}

func NewQuizService(store quizStore, log *logger.Logger) *QuizService {
	return &QuizService{store: store, log: log.With("component", "quiz"), now: time.Now}
}

var errQuizNotFound = &NotFoundError{Message: "Quiz not found"}

// GetForLearner returns the quiz for a record without answers or
// explanations.
func (s *QuizService) GetForLearner(ctx context.Context, videoID, userID uuid.UUID) (*models.LearnerQuiz, error) {
	quiz, err := s.store.GetByVideoForUser(ctx, videoID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errQuizNotFound
		}
		return nil, err
	}
	return LearnerView(quiz), nil
}

func LearnerView(quiz *models.Quiz) *models.LearnerQuiz {
	questions := make([]models.LearnerQuestion, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = models.LearnerQuestion{
			QuestionIndex: i,
			Question:      q.Question,
			Options:       q.Options,
			Difficulty:    q.Difficulty,
		}
	}
	return &models.LearnerQuiz{
		ID:             quiz.ID,
		VideoID:        quiz.VideoID,
		TotalQuestions: quiz.TotalQuestions,
		Questions:      questions,
		Attempts:       len(quiz.Attempts),
	}
}

// Submit grades answers against the stored questions and appends the
// attempt. Unanswered questions count as incorrect.
func (s *QuizService) Submit(ctx context.Context, quizID, userID uuid.UUID, answers []models.AnswerSubmission, timeTaken int) (*models.AttemptResult, error) {
	quiz, err := s.store.GetByIDForUser(ctx, quizID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errQuizNotFound
		}
		return nil, err
	}

	if err := validateAnswers(answers, len(quiz.Questions), timeTaken); err != nil {
		return nil, err
	}

	graded := GradeAnswers(quiz.Questions, answers)
	correct := 0
	for _, g := range graded {
		if g.IsCorrect {
			correct++
		}
	}
	score := ScorePercent(correct, quiz.TotalQuestions)

	attempt := models.QuizAttempt{
		AttemptedAt: s.now().UTC(),
		Answers:     graded,
		Score:       score,
		TimeTaken:   timeTaken,
	}

	attemptNumber, err := s.store.AppendAttempt(ctx, quizID, userID, attempt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errQuizNotFound
		}
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}
	metrics.QuizAttempts.Inc()
	s.log.Info("quiz attempt recorded", "quiz_id", quizID, "user_id", userID, "attempt", attemptNumber, "score", score)

	return &models.AttemptResult{
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: quiz.TotalQuestions,
		Percentage:     score,
		Answers:        graded,
		AttemptNumber:  attemptNumber,
	}, nil
}

func validateAnswers(answers []models.AnswerSubmission, questionCount, timeTaken int) error {
	fields := make(map[string]string)
	if len(answers) == 0 {
		fields["answers"] = "At least one answer is required"
	}
	if timeTaken < 0 {
		fields["time_taken"] = "Time taken cannot be negative"
	}

	seen := make(map[int]bool, len(answers))
	for i, a := range answers {
		switch {
		case a.QuestionIndex < 0 || a.QuestionIndex >= questionCount:
			fields[fmt.Sprintf("answers[%d].question_index", i)] =
				fmt.Sprintf("Question index must be between 0 and %d", questionCount-1)
		case seen[a.QuestionIndex]:
			fields[fmt.Sprintf("answers[%d].question_index", i)] = "Question answered more than once"
		}
		seen[a.QuestionIndex] = true

		if a.SelectedAnswer < 0 || a.SelectedAnswer >= models.OptionsPerQuestion {
			fields[fmt.Sprintf("answers[%d].selected_answer", i)] =
				fmt.Sprintf("Selected answer must be between 0 and %d", models.OptionsPerQuestion-1)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// GradeAnswers marks each answer against its question. Answers must have
// been validated.
func GradeAnswers(questions []models.QuizQuestion, answers []models.AnswerSubmission) []models.GradedAnswer {
	graded := make([]models.GradedAnswer, len(answers))
	for i, a := range answers {
		q := questions[a.QuestionIndex]
		graded[i] = models.GradedAnswer{
			QuestionIndex:  a.QuestionIndex,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      a.SelectedAnswer == q.CorrectAnswer,
			CorrectAnswer:  q.CorrectAnswer,
			Explanation:    q.Explanation,
		}
	}
	return graded
}

// ScorePercent is round-half-up of 100*correct/total.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// History lists attempts most recent first. Attempt numbers follow the
// order of submission.
func (s *QuizService) History(ctx context.Context, quizID, userID uuid.UUID) (*models.AttemptHistory, error) {
	quiz, err := s.store.GetByIDForUser(ctx, quizID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errQuizNotFound
		}
		return nil, err
	}

	n := len(quiz.Attempts)
	history := make([]models.AttemptSummary, 0, n)
	for i := n - 1; i >= 0; i-- {
		a := quiz.Attempts[i]
		history = append(history, models.AttemptSummary{
			AttemptNumber:  i + 1,
			Score:          a.Score,
			AttemptedAt:    a.AttemptedAt,
			TimeTaken:      a.TimeTaken,
			CorrectAnswers: a.CorrectCount(),
			TotalQuestions: quiz.TotalQuestions,
		})
	}

	return &models.AttemptHistory{QuizID: quiz.ID, TotalAttempts: n, History: history}, nil
}

// AttemptDetail returns the full breakdown of the 1-based attempt n.
func (s *QuizService) AttemptDetail(ctx context.Context, quizID, userID uuid.UUID, n int) (*models.AttemptDetail, error) {
	quiz, err := s.store.GetByIDForUser(ctx, quizID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errQuizNotFound
		}
		return nil, err
	}

	if n < 1 || n > len(quiz.Attempts) {
		return nil, &NotFoundError{Message: "Attempt not found"}
	}

	a := quiz.Attempts[n-1]
	return &models.AttemptDetail{
		AttemptNumber:  n,
		Score:          a.Score,
		AttemptedAt:    a.AttemptedAt,
		TimeTaken:      a.TimeTaken,
		CorrectAnswers: a.CorrectCount(),
		TotalQuestions: quiz.TotalQuestions,
		Answers:        a.Answers,
	}, nil
}
