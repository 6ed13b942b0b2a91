package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/corebank/backend/internal/models"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, role, blocked, main_account_number, created_at, last_login
		FROM users
		WHERE id = $1`, id).Scan(
		&u.ID, &u.Username, &u.Role, &u.Blocked, &u.MainAccountNumber, &u.CreatedAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

func (s *UserStore) SetMainAccount(ctx context.Context, userID int64, accountNumber string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET main_account_number = $1, updated_at = $2
		WHERE id = $3`, accountNumber, time.Now(), userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
