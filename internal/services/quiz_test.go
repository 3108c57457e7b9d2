package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/models"
	"smartlearning-backend/internal/repository"
)

type stubQuizStore struct {
	quiz      *models.Quiz
	appendErr error
}

func (s *stubQuizStore) owned(id, userID uuid.UUID) (*models.Quiz, error) {
	if s.quiz == nil || s.quiz.ID != id || s.quiz.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return s.quiz, nil
}

func (s *stubQuizStore) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Quiz, error) {
	return s.owned(id, userID)
}

func (s *stubQuizStore) GetByVideoForUser(ctx context.Context, videoID, userID uuid.UUID) (*models.Quiz, error) {
	if s.quiz == nil || s.quiz.VideoID != videoID || s.quiz.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return s.quiz, nil
}

func (s *stubQuizStore) AppendAttempt(ctx context.Context, id, userID uuid.UUID, attempt models.QuizAttempt) (int, error) {
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	if _, err := s.owned(id, userID); err != nil {
		return 0, err
	}
	s.quiz.Attempts = append(s.quiz.Attempts, attempt)
	return len(s.quiz.Attempts), nil
}

func newQuizFixture() (*QuizService, *stubQuizStore, *models.Quiz) {
	quiz := &models.Quiz{
		ID:             uuid.New(),
		VideoID:        uuid.New(),
		UserID:         uuid.New(),
		Questions:      validQuestions(),
		TotalQuestions: models.QuestionsPerQuiz,
	}
	store := &stubQuizStore{quiz: quiz}
	svc := NewQuizService(store, logger.Nop())
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, store, quiz
}

// answers returns a submission for every question with the first
// `correct` answered correctly.
func answers(quiz *models.Quiz, correct int) []models.AnswerSubmission {
	out := make([]models.AnswerSubmission, len(quiz.Questions))
	for i, q := range quiz.Questions {
		sel := q.CorrectAnswer
		if i >= correct {
			sel = (q.CorrectAnswer + 1) % models.OptionsPerQuestion
		}
		out[i] = models.AnswerSubmission{QuestionIndex: i, SelectedAnswer: sel}
	}
	return out
}

func TestQuizService_SubmitScores(t *testing.T) {
	for _, tc := range []struct {
		correct int
		want    int
	}{
		{10, 100},
		{0, 0},
		{7, 70},
		{9, 90},
	} {
		svc, _, quiz := newQuizFixture()
		res, err := svc.Submit(context.Background(), quiz.ID, quiz.UserID, answers(quiz, tc.correct), 120)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Score != tc.want || res.Percentage != tc.want {
			t.Errorf("%d correct: score %d, want %d", tc.correct, res.Score, tc.want)
		}
		if res.CorrectAnswers != tc.correct || res.TotalQuestions != 10 || res.AttemptNumber != 1 {
			t.Errorf("unexpected result: %+v", res)
		}
	}
}

func TestQuizService_PartialSubmissionCountsMissingAsWrong(t *testing.T) {
	svc, _, quiz := newQuizFixture()
	partial := answers(quiz, 10)[:5]

	res, err := svc.Submit(context.Background(), quiz.ID, quiz.UserID, partial, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 50 {
		t.Fatalf("score = %d, want 50", res.Score)
	}
	if len(res.Answers) != 5 {
		t.Fatalf("expected 5 graded answers, got %d", len(res.Answers))
	}
}

func TestScorePercent_RoundsHalfUp(t *testing.T) {
	tests := []struct{ correct, total, want int }{
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{1, 200, 1},
		{0, 0, 0},
	}
	for _, tc := range tests {
		if got := ScorePercent(tc.correct, tc.total); got != tc.want {
			t.Errorf("ScorePercent(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestQuizService_SubmitRejectsBadAnswers(t *testing.T) {
	tests := []struct {
		name      string
		answers   []models.AnswerSubmission
		timeTaken int
		field     string
	}{
		{"empty", nil, 10, "answers"},
		{"negative time", []models.AnswerSubmission{{QuestionIndex: 0, SelectedAnswer: 0}}, -1, "time_taken"},
		{"index out of range", []models.AnswerSubmission{{QuestionIndex: 10, SelectedAnswer: 0}}, 0, "answers[0].question_index"},
		{"negative index", []models.AnswerSubmission{{QuestionIndex: -1, SelectedAnswer: 0}}, 0, "answers[0].question_index"},
		{"duplicate index", []models.AnswerSubmission{{QuestionIndex: 2, SelectedAnswer: 0}, {QuestionIndex: 2, SelectedAnswer: 1}}, 0, "answers[1].question_index"},
		{"selected out of range", []models.AnswerSubmission{{QuestionIndex: 0, SelectedAnswer: 4}}, 0, "answers[0].selected_answer"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, quiz := newQuizFixture()
			_, err := svc.Submit(context.Background(), quiz.ID, quiz.UserID, tc.answers, tc.timeTaken)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, verr.Fields)
			}
			if len(quiz.Attempts) != 0 {
				t.Fatal("rejected submission must not be recorded")
			}
		})
	}
}

func TestQuizService_OtherUsersQuizIsNotFound(t *testing.T) {
	svc, _, quiz := newQuizFixture()
	_, err := svc.Submit(context.Background(), quiz.ID, uuid.New(), answers(quiz, 10), 0)

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestQuizService_AppendFailure(t *testing.T) {
	svc, store, quiz := newQuizFixture()
	store.appendErr = errors.New("connection reset")

	if _, err := svc.Submit(context.Background(), quiz.ID, quiz.UserID, answers(quiz, 10), 0); err == nil {
		t.Fatal("expected an error when the attempt cannot be stored")
	}
}

func TestQuizService_LearnerViewWithholdsAnswers(t *testing.T) {
	svc, _, quiz := newQuizFixture()
	view, err := svc.GetForLearner(context.Background(), quiz.VideoID, quiz.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Questions) != 10 || view.TotalQuestions != 10 {
		t.Fatalf("unexpected view: %+v", view)
	}
	for i, q := range view.Questions {
		if q.QuestionIndex != i || len(q.Options) != 4 {
			t.Fatalf("unexpected question %d: %+v", i, q)
		}
	}
}

func TestQuizService_HistoryAndDetail(t *testing.T) {
	svc, _, quiz := newQuizFixture()
	for _, correct := range []int{3, 6, 9} {
		if _, err := svc.Submit(context.Background(), quiz.ID, quiz.UserID, answers(quiz, correct), correct*10); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	history, err := svc.History(context.Background(), quiz.ID, quiz.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history.TotalAttempts != 3 || len(history.History) != 3 {
		t.Fatalf("unexpected history: %+v", history)
	}
	first := history.History[0]
	if first.AttemptNumber != 3 || first.Score != 90 || first.CorrectAnswers != 9 {
		t.Fatalf("most recent attempt should come first: %+v", first)
	}
	if !history.History[0].AttemptedAt.After(history.History[2].AttemptedAt) {
		t.Fatal("history should be ordered newest first")
	}

	detail, err := svc.AttemptDetail(context.Background(), quiz.ID, quiz.UserID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.AttemptNumber != 1 || detail.Score != 30 || len(detail.Answers) != 10 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if detail.Answers[0].Explanation == "" {
		t.Fatal("detail should include explanations")
	}

	for _, n := range []int{0, 4, -1} {
		_, err := svc.AttemptDetail(context.Background(), quiz.ID, quiz.UserID, n)
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("attempt %d: expected NotFoundError, got %v", n, err)
		}
	}
}
