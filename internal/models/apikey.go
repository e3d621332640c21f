package models

import "time"

// APIKey is the stored record for an issued key. Only the hash is kept.
type APIKey struct {
	Hash        string     `json:"hash"`
	Name        string     `json:"name"`
	Permissions []string   `json:"permissions"`
	Created     time.Time  `json:"created"`
	LastUsed    *time.Time `json:"lastUsed"`
	UsageCount  int        `json:"usageCount"`
}

// Masked returns a copy with the hash cut to 16 characters
func (k APIKey) Masked() APIKey {
	if len(k.Hash) > 16 {
		k.Hash = k.Hash[:16] + "..."
	}
	k.Permissions = append([]string(nil), k.Permissions...)
	return k
}
