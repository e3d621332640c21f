package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username already exists")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidUsername    = errors.New("invalid username: use 3-20 alphanumeric characters, underscore, or hyphen")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrProtectedUser      = errors.New("the admin user cannot be deleted or deactivated")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")

	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid token")

	ErrTwoFactorNotSetup = errors.New("2FA not set up")
	ErrInvalidTOTP       = errors.New("invalid verification code")

	ErrRoleExists  = errors.New("role already exists")
	ErrUnknownRole = errors.New("invalid role")
)
