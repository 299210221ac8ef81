package repositories

import (
	"context"
	"database/sql"
	"time"

	"soukBack/internal/models"
)

type UserRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.CreatedAt = user.CreatedAt.UTC()
	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query), user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return models.User{}, models.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg string) (models.User, error) {
	var (
		user      models.User
		createdAt nullTime
	)
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), arg).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return models.User{}, models.ErrNoRecord
	}
	if err != nil {
		return models.User{}, err
	}
	user.CreatedAt = createdAt.Time
	return user, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`), email).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepository) SetSession(ctx context.Context, s models.Session) error {
	query := `INSERT INTO sessions (refresh_token, user_id, expires_at) VALUES (?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query), s.RefreshToken, s.UserID, s.ExpiresAt.UTC())
	return err
}

func (r *UserRepository) GetSession(ctx context.Context, refreshToken string) (models.Session, error) {
	var (
		s         models.Session
		expiresAt nullTime
	)
	query := `SELECT refresh_token, user_id, expires_at FROM sessions WHERE refresh_token = ?`
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), refreshToken).Scan(&s.RefreshToken, &s.UserID, &expiresAt)
	if err == sql.ErrNoRows {
		return models.Session{}, models.ErrNoRecord
	}
	if err != nil {
		return models.Session{}, err
	}
	s.ExpiresAt = expiresAt.Time
	return s, nil
}

func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	result, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM sessions WHERE refresh_token = ?`), refreshToken)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
