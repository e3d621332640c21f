package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tillerstead/admin/internal/models"
)

// TwoFactorRepository stores TOTP secrets and backup codes in sqlite
type TwoFactorRepository struct {
	db *DB
}

// NewTwoFactorRepository creates a new 2FA repository
func NewTwoFactorRepository(db *DB) *TwoFactorRepository {
	return &TwoFactorRepository{db: db}
}

func (r *TwoFactorRepository) LoadTwoFactor(ctx context.Context) ([]*models.TwoFactorRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT username, secret, pending_secret, backup_codes, enabled_at
		FROM two_factor ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query 2fa: %w", err)
	}
	defer rows.Close()

	var recs []*models.TwoFactorRecord
	for rows.Next() {
		var rec models.TwoFactorRecord
		var secret, pending sql.NullString
		var codes string
		var enabledAt sql.NullTime
		if err := rows.Scan(&rec.Username, &secret, &pending, &codes, &enabledAt); err != nil {
			return nil, fmt.Errorf("failed to scan 2fa: %w", err)
		}
		if err := json.Unmarshal([]byte(codes), &rec.BackupCodes); err != nil {
			return nil, fmt.Errorf("bad backup codes for %s: %w", rec.Username, err)
		}
		rec.Secret = secret.String
		rec.PendingSecret = pending.String
		rec.EnabledAt = timePtr(enabledAt)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func (r *TwoFactorRepository) SaveTwoFactor(ctx context.Context, rec *models.TwoFactorRecord) error {
	codes := rec.BackupCodes
	if codes == nil {
		codes = []string{}
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO two_factor (username, secret, pending_secret, backup_codes, enabled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			secret = excluded.secret,
			pending_secret = excluded.pending_secret,
			backup_codes = excluded.backup_codes,
			enabled_at = excluded.enabled_at
	`, rec.Username, nullString(rec.Secret), nullString(rec.PendingSecret), string(data), nullTime(rec.EnabledAt))
	if err != nil {
		return fmt.Errorf("failed to save 2fa: %w", err)
	}
	return nil
}

func (r *TwoFactorRepository) DeleteTwoFactor(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM two_factor WHERE username = ?", username)
	return err
}
