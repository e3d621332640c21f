package models

import "time"

// TwoFactorRecord is the persisted 2FA state for one user.
// A record with Secret empty and PendingSecret set is mid-setup.
type TwoFactorRecord struct {
	Username      string     `json:"username"`
	Secret        string     `json:"secret,omitempty"`
	PendingSecret string     `json:"pendingSecret,omitempty"`
	BackupCodes   []string   `json:"backupCodes,omitempty"`
	EnabledAt     *time.Time `json:"enabledAt,omitempty"`
}

// Enabled reports whether a permanent secret is set
func (r *TwoFactorRecord) Enabled() bool {
	return r != nil && r.Secret != ""
}

// Pending reports whether setup has started but not been confirmed
func (r *TwoFactorRecord) Pending() bool {
	return r != nil && r.PendingSecret != ""
}

// TwoFactorStatus is the client-facing 2FA summary
type TwoFactorStatus struct {
	Enabled              bool `json:"enabled"`
	Pending              bool `json:"pending"`
	BackupCodesRemaining int  `json:"backupCodesRemaining"`
}
