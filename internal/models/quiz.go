package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// QuestionsPerQuiz is the number of questions every generated quiz carries.
const QuestionsPerQuiz = 10

// OptionsPerQuestion is the number of answer choices per question.
const OptionsPerQuestion = 4

type Quiz struct {
	ID             uuid.UUID      `json:"id"`
	VideoID        uuid.UUID      `json:"video_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Questions      []QuizQuestion `json:"questions"`
	Attempts       []QuizAttempt  `json:"attempts"`
	TotalQuestions int            `json:"total_questions"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

// QuizAttempt is immutable once appended to a quiz.
type QuizAttempt struct {
	AttemptedAt time.Time      `json:"attempted_at"`
	Answers     []GradedAnswer `json:"answers"`
	Score       int            `json:"score"`
	TimeTaken   int            `json:"time_taken"`
}

func (a QuizAttempt) CorrectCount() int {
	n := 0
	for _, ans := range a.Answers {
		if ans.IsCorrect {
			n++
		}
	}
	return n
}

type GradedAnswer struct {
	QuestionIndex  int    `json:"question_index"`
	SelectedAnswer int    `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
	CorrectAnswer  int    `json:"correct_answer"`
	Explanation    string `json:"explanation"`
}

type AnswerSubmission struct {
	QuestionIndex  int `json:"question_index" validate:"min=0"`
	SelectedAnswer int `json:"selected_answer" validate:"min=0,max=3"`
}

type SubmitQuizRequest struct {
	Answers   []AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
	TimeTaken int                `json:"time_taken" validate:"min=0"`
}

// LearnerQuestion is a question as shown before submission.
type LearnerQuestion struct {
	QuestionIndex int      `json:"question_index"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Difficulty    string   `json:"difficulty"`
}

type LearnerQuiz struct {
	ID             uuid.UUID         `json:"id"`
	VideoID        uuid.UUID         `json:"video_id"`
	TotalQuestions int               `json:"total_questions"`
	Questions      []LearnerQuestion `json:"questions"`
	Attempts       int               `json:"attempts"`
}

type AttemptResult struct {
	Score          int            `json:"score"`
	CorrectAnswers int            `json:"correct_answers"`
	TotalQuestions int            `json:"total_questions"`
	Percentage     int            `json:"percentage"`
	Answers        []GradedAnswer `json:"answers"`
	AttemptNumber  int            `json:"attempt_number"`
}

type AttemptSummary struct {
	AttemptNumber  int       `json:"attempt_number"`
	Score          int       `json:"score"`
	AttemptedAt    time.Time `json:"attempted_at"`
	TimeTaken      int       `json:"time_taken"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
}

type AttemptHistory struct {
	QuizID        uuid.UUID        `json:"quiz_id"`
	TotalAttempts int              `json:"total_attempts"`
	History       []AttemptSummary `json:"history"`
}

type AttemptDetail struct {
	AttemptNumber  int            `json:"attempt_number"`
	Score          int            `json:"score"`
	AttemptedAt    time.Time      `json:"attempted_at"`
	TimeTaken      int            `json:"time_taken"`
	CorrectAnswers int            `json:"correct_answers"`
	TotalQuestions int            `json:"total_questions"`
	Answers        []GradedAnswer `json:"answers"`
}
