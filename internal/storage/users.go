package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tillerstead/admin/internal/models"
)

// UserRepository provides user data access
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// LoadUsers returns every user ordered by username
func (r *UserRepository) LoadUsers(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT username, email, password_hash, role, created, last_login, is_active,
			two_factor_enabled, reset_token, reset_token_expiry
		FROM users ORDER BY username
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetByUsername retrieves a single user
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT username, email, password_hash, role, created, last_login, is_active,
			two_factor_enabled, reset_token, reset_token_expiry
		FROM users WHERE username = ?
	`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// SaveUser inserts or replaces a user
func (r *UserRepository) SaveUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, created, last_login, is_active,
			two_factor_enabled, reset_token, reset_token_expiry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash,
			role = excluded.role,
			last_login = excluded.last_login,
			is_active = excluded.is_active,
			two_factor_enabled = excluded.two_factor_enabled,
			reset_token = excluded.reset_token,
			reset_token_expiry = excluded.reset_token_expiry
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Created.UTC(),
		nullTime(user.LastLogin),
		user.IsActive,
		user.TwoFactorEnabled,
		nullString(user.ResetToken),
		nullTime(user.ResetTokenExpiry),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// DeleteUser removes a user
func (r *UserRepository) DeleteUser(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var lastLogin, resetExpiry sql.NullTime
	var resetToken sql.NullString

	err := row.Scan(
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Created,
		&lastLogin,
		&user.IsActive,
		&user.TwoFactorEnabled,
		&resetToken,
		&resetExpiry,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.LastLogin = timePtr(lastLogin)
	user.ResetTokenExpiry = timePtr(resetExpiry)
	if resetToken.Valid {
		user.ResetToken = resetToken.String
	}

	return &user, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
