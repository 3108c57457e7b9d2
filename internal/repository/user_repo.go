package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartlearning-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, username, email, password_hash, theme, language, created_at, last_login_at`

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, theme, language)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	user.ID = uuid.New()
	if user.Preferences == (models.Preferences{}) {
		user.Preferences = models.DefaultPreferences()
	}

	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Preferences.Theme, user.Preferences.Language,
	).Scan(&user.CreatedAt)
	return mapErr(err)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Preferences.Theme, &user.Preferences.Language, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return user, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET last_login_at = NOW() WHERE id = $1", userID)
	return err
}

func (r *UserRepo) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs models.Preferences) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE users SET theme = $1, language = $2 WHERE id = $3",
		prefs.Theme, prefs.Language, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error {
	tag, err := r.pool.Exec(ctx, "UPDATE users SET username = $1 WHERE id = $2", username, userID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// addToLearningHistory appends videoID unless it is already present.
func addToLearningHistory(ctx context.Context, db dbtx, userID, videoID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE users
		SET learning_history = CASE
			WHEN $1::uuid = ANY(learning_history) THEN learning_history
			ELSE array_append(learning_history, $1::uuid)
		END
		WHERE id = $2`, videoID, userID)
	return err
}

func removeFromLearningHistory(ctx context.Context, db dbtx, userID, videoID uuid.UUID) error {
	_, err := db.Exec(ctx,
		"UPDATE users SET learning_history = array_remove(learning_history, $1::uuid) WHERE id = $2",
		videoID, userID,
	)
	return err
}
