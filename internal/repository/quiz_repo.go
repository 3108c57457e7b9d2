package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartlearning-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

const quizColumns = `id, video_id, user_id, questions, attempts, total_questions, created_at, updated_at`

func insertQuiz(ctx context.Context, db dbtx, q *models.Quiz) error {
	q.ID = uuid.New()
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	if q.TotalQuestions == 0 {
		q.TotalQuestions = len(q.Questions)
	}

	query := `INSERT INTO quizzes (id, video_id, user_id, questions, attempts, total_questions)
		VALUES ($1, $2, $3, $4, '[]', $5) RETURNING created_at, updated_at`

	return db.QueryRow(ctx, query,
		q.ID, q.VideoID, q.UserID, questions, q.TotalQuestions,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
}

func (r *QuizRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1 AND user_id = $2`
	q, err := scanQuiz(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return q, nil
}

func (r *QuizRepo) GetByVideoForUser(ctx context.Context, videoID, userID uuid.UUID) (*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE video_id = $1 AND user_id = $2`
	q, err := scanQuiz(r.pool.QueryRow(ctx, query, videoID, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return q, nil
}

// AppendAttempt appends attempt in a single statement and returns the
// resulting number of attempts, which is the new attempt's number.
func (r *QuizRepo) AppendAttempt(ctx context.Context, id, userID uuid.UUID, attempt models.QuizAttempt) (int, error) {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return 0, err
	}

	var count int
	err = r.pool.QueryRow(ctx, `
		UPDATE quizzes
		SET attempts = attempts || jsonb_build_array($1::jsonb), updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING jsonb_array_length(attempts)`,
		payload, id, userID,
	).Scan(&count)
	if err != nil {
		return 0, mapErr(err)
	}
	return count, nil
}

func (r *QuizRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []*models.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	q := &models.Quiz{}
	var questions, attempts []byte
	if err := row.Scan(&q.ID, &q.VideoID, &q.UserID, &questions, &attempts, &q.TotalQuestions, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(attempts) > 0 {
		if err := json.Unmarshal(attempts, &q.Attempts); err != nil {
			return nil, fmt.Errorf("decode attempts: %w", err)
		}
	}
	return q, nil
}
