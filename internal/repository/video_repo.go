package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartlearning-backend/internal/models"
)

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

const videoColumns = `id, user_id, video_url, external_id, title, thumbnail_url, duration_seconds,
	transcript_raw, transcript_cleaned, summary, key_points, generated_at, quiz_id,
	metadata, status, error, created_at, updated_at`

// CreateWithQuiz stores a completed record, its quiz, the link between
// them and the owner's history entry in one transaction.
func (r *VideoRepo) CreateWithQuiz(ctx context.Context, v *models.Video, q *models.Quiz) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertVideo(ctx, tx, v); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	q.VideoID = v.ID
	q.UserID = v.UserID
	if err := insertQuiz(ctx, tx, q); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE videos SET quiz_id = $1, updated_at = NOW() WHERE id = $2",
		q.ID, v.ID,
	); err != nil {
		return fmt.Errorf("link quiz: %w", err)
	}
	v.QuizID = &q.ID

	if err := addToLearningHistory(ctx, tx, v.UserID, v.ID); err != nil {
		return fmt.Errorf("update learning history: %w", err)
	}

	return tx.Commit(ctx)
}

// CreateFailed stores an audit record for a request that failed before
// any content was generated.
func (r *VideoRepo) CreateFailed(ctx context.Context, v *models.Video) error {
	return insertVideo(ctx, r.pool, v)
}

func insertVideo(ctx context.Context, db dbtx, v *models.Video) error {
	v.ID = uuid.New()

	keyPoints, err := json.Marshal(v.Content.KeyPoints)
	if err != nil {
		return err
	}
	if v.Content.KeyPoints == nil {
		keyPoints = []byte("[]")
	}
	metadata, err := json.Marshal(v.Metadata)
	if err != nil {
		return err
	}
	var errJSON []byte
	if v.Error != nil {
		if errJSON, err = json.Marshal(v.Error); err != nil {
			return err
		}
	}

	query := `INSERT INTO videos (id, user_id, video_url, external_id, title, thumbnail_url, duration_seconds,
			transcript_raw, transcript_cleaned, summary, key_points, generated_at, metadata, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`

	return db.QueryRow(ctx, query,
		v.ID, v.UserID, v.VideoURL, v.ExternalID, v.Title, v.ThumbnailURL, v.DurationSeconds,
		v.Transcript.Raw, v.Transcript.Cleaned, v.Content.Summary, keyPoints, v.Content.GeneratedAt,
		metadata, v.Status, errJSON,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
}

func (r *VideoRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1 AND user_id = $2`
	v, err := scanVideo(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	v := &models.Video{}
	var keyPoints, metadata, errJSON []byte
	err := row.Scan(
		&v.ID, &v.UserID, &v.VideoURL, &v.ExternalID, &v.Title, &v.ThumbnailURL, &v.DurationSeconds,
		&v.Transcript.Raw, &v.Transcript.Cleaned, &v.Content.Summary, &keyPoints, &v.Content.GeneratedAt, &v.QuizID,
		&metadata, &v.Status, &errJSON, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(keyPoints) > 0 {
		if err := json.Unmarshal(keyPoints, &v.Content.KeyPoints); err != nil {
			return nil, fmt.Errorf("decode key points: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &v.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if len(errJSON) > 0 {
		v.Error = &models.ProcessingError{}
		if err := json.Unmarshal(errJSON, v.Error); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
	}
	return v, nil
}

// ListCompletedByUser returns one page of completed records, newest first,
// and the total number of completed records.
func (r *VideoRepo) ListCompletedByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.VideoSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM videos WHERE user_id = $1 AND status = 'completed'", userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT v.id, v.video_url, v.external_id, v.title, v.thumbnail_url, v.summary, v.key_points,
			v.status, v.created_at, q.id, q.total_questions, jsonb_array_length(q.attempts)
		FROM videos v
		LEFT JOIN quizzes q ON q.id = v.quiz_id
		WHERE v.user_id = $1 AND v.status = 'completed'
		ORDER BY v.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	videos := []models.VideoSummary{}
	for rows.Next() {
		var (
			s            models.VideoSummary
			keyPoints    []byte
			quizID       *uuid.UUID
			quizTotal    *int
			attemptCount *int
		)
		if err := rows.Scan(
			&s.ID, &s.VideoURL, &s.ExternalID, &s.Title, &s.ThumbnailURL, &s.Summary, &keyPoints,
			&s.Status, &s.CreatedAt, &quizID, &quizTotal, &attemptCount,
		); err != nil {
			return nil, 0, err
		}
		if len(keyPoints) > 0 {
			if err := json.Unmarshal(keyPoints, &s.KeyPoints); err != nil {
				return nil, 0, fmt.Errorf("decode key points: %w", err)
			}
		}
		if quizID != nil {
			s.Quiz = &models.QuizSummary{ID: *quizID}
			if quizTotal != nil {
				s.Quiz.TotalQuestions = *quizTotal
			}
			if attemptCount != nil {
				s.Quiz.AttemptCount = *attemptCount
			}
		}
		videos = append(videos, s)
	}
	return videos, total, rows.Err()
}

// ListCompletedTimesSince returns creation times of completed records
// created at or after since.
func (r *VideoRepo) ListCompletedTimesSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT created_at FROM videos WHERE user_id = $1 AND status = 'completed' AND created_at >= $2 ORDER BY created_at",
		userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// DeleteForUser removes the record, its quiz and the owner's history
// entry in one transaction.
func (r *VideoRepo) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM quizzes WHERE video_id = $1 AND user_id = $2", id, userID); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}

	tag, err := tx.Exec(ctx, "DELETE FROM videos WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := removeFromLearningHistory(ctx, tx, userID, id); err != nil {
		return fmt.Errorf("update learning history: %w", err)
	}

	return tx.Commit(ctx)
}
