package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tillerstead/admin/internal/models"
)

// APIKeyRepository stores hashed API keys in sqlite
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) LoadKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT hash, name, permissions, created, last_used, usage_count
		FROM api_keys ORDER BY created
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		var perms string
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.Hash, &k.Name, &perms, &k.Created, &lastUsed, &k.UsageCount); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		if err := json.Unmarshal([]byte(perms), &k.Permissions); err != nil {
			return nil, fmt.Errorf("bad permissions for key %s: %w", k.Name, err)
		}
		k.LastUsed = timePtr(lastUsed)
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (r *APIKeyRepository) SaveKey(ctx context.Context, key *models.APIKey) error {
	perms, err := json.Marshal(key.Permissions)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO api_keys (hash, name, permissions, created, last_used, usage_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			name = excluded.name,
			permissions = excluded.permissions,
			last_used = excluded.last_used,
			usage_count = excluded.usage_count
	`, key.Hash, key.Name, string(perms), key.Created.UTC(), nullTime(key.LastUsed), key.UsageCount)
	if err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) DeleteKey(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM api_keys WHERE hash = ?", hash)
	return err
}
