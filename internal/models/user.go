// Package models defines core domain types
package models

import (
	"time"
)

// Role names seeded at startup
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// User is a back-office account. The hash and reset fields are persisted
// but never leave the service layer; use Public for responses.
type User struct {
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"passwordHash"`
	Role             string     `json:"role"`
	Created          time.Time  `json:"created"`
	LastLogin        *time.Time `json:"lastLogin"`
	IsActive         bool       `json:"isActive"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	ResetToken       string     `json:"resetToken,omitempty"`
	ResetTokenExpiry *time.Time `json:"resetTokenExpiry,omitempty"`
}

// PublicUser is the client-safe view of a User
type PublicUser struct {
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	Created          time.Time  `json:"created"`
	LastLogin        *time.Time `json:"lastLogin"`
	IsActive         bool       `json:"isActive"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
}

// Public strips credentials and reset state
func (u *User) Public() PublicUser {
	return PublicUser{
		Username:         u.Username,
		Email:            u.Email,
		Role:             u.Role,
		Created:          u.Created,
		LastLogin:        u.LastLogin,
		IsActive:         u.IsActive,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

// ResetTokenValid reports whether token matches and has not expired at now
func (u *User) ResetTokenValid(token string, now time.Time) bool {
	if u.ResetToken == "" || u.ResetToken != token || u.ResetTokenExpiry == nil {
		return false
	}
	return now.Before(*u.ResetTokenExpiry)
}

// UserStats summarizes the user table
type UserStats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByRole   map[string]int `json:"byRole"`
	With2FA  int            `json:"with2FA"`
}
