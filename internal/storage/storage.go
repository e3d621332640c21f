// Package storage provides persistence for users, API keys and 2FA state
package storage

import (
	"context"

	"github.com/tillerstead/admin/internal/models"
)

// UserStore persists user records keyed by username
type UserStore interface {
	LoadUsers(ctx context.Context) ([]*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, username string) error
}

// APIKeyStore persists API key records keyed by hash
type APIKeyStore interface {
	LoadKeys(ctx context.Context) ([]*models.APIKey, error)
	SaveKey(ctx context.Context, key *models.APIKey) error
	DeleteKey(ctx context.Context, hash string) error
}

// TwoFactorStore persists 2FA state keyed by username
type TwoFactorStore interface {
	LoadTwoFactor(ctx context.Context) ([]*models.TwoFactorRecord, error)
	SaveTwoFactor(ctx context.Context, rec *models.TwoFactorRecord) error
	DeleteTwoFactor(ctx context.Context, username string) error
}
