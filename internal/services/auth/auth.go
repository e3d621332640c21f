// Package auth provides authentication services: users, sessions, roles,
// TOTP two-factor and the login flow that ties them together.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/services/audit"
	"github.com/tillerstead/admin/internal/services/security"
)

// LockoutError is returned while the client is locked out
type LockoutError struct {
	UnlockTime time.Time
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return "Too many failed attempts"
}

// LoginNotifier is told about failed logins and lockouts
type LoginNotifier interface {
	NotifyLoginFailure(ctx context.Context, username, ip string, attempts int)
	NotifyAccountLocked(ctx context.Context, identifier, ip string, unlockTime time.Time)
	NotifyPasswordChanged(ctx context.Context, username string)
}

// Service runs the login, 2FA verification and logout flows
type Service struct {
	users      *UserManager
	sessions   *SessionManager
	twoFactor  *TwoFactorAuth
	bruteForce *security.BruteForce
	audit      *audit.Logger
	signer     *CookieSigner
	notifier   LoginNotifier
	log        *zap.Logger
}

// Deps groups the collaborators of Service
type Deps struct {
	Users      *UserManager
	Sessions   *SessionManager
	TwoFactor  *TwoFactorAuth
	BruteForce *security.BruteForce
	Audit      *audit.Logger
	Signer     *CookieSigner
	Notifier   LoginNotifier
	Log        *zap.Logger
}

// NewService creates a new auth service
func NewService(d Deps) *Service {
	return &Service{
		users:      d.Users,
		sessions:   d.Sessions,
		twoFactor:  d.TwoFactor,
		bruteForce: d.BruteForce,
		audit:      d.Audit,
		signer:     d.Signer,
		notifier:   d.Notifier,
		log:        d.Log,
	}
}

// LoginInput contains login credentials and request metadata
type LoginInput struct {
	Username  string
	Password  string
	IP        string
	UserAgent string
}

// LoginResult contains the result of a successful password check
type LoginResult struct {
	SessionID  string
	Token      string
	User       models.PublicUser
	Require2FA bool
}

// Login checks credentials for the client identified by IP. When the user has
// 2FA enabled the returned session stays pending until Verify2FA.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if st := s.bruteForce.Status(in.IP); st.Locked {
		s.audit.Log(ctx, "login_locked", in.Username, map[string]any{"reason": "locked_out"}, in.IP)
		return nil, lockout(st.UnlockTime, st.RemainingTime)
	}

	user, ok := s.users.GetUser(in.Username)
	switch {
	case !ok:
		return nil, s.fail(ctx, in, "user_not_found", ErrInvalidCredentials)
	case !s.users.VerifyPassword(in.Username, in.Password):
		return nil, s.fail(ctx, in, "wrong_password", ErrInvalidCredentials)
	case !user.IsActive:
		return nil, s.fail(ctx, in, "account_disabled", ErrAccountDisabled)
	}

	s.bruteForce.RecordAttempt(in.IP, true)

	if err := s.users.UpdateLastLogin(ctx, user.Username); err != nil {
		s.log.Warn("failed to update last login", zap.String("user", user.Username), zap.Error(err))
	}

	require2FA := s.twoFactor.IsEnabled(user.Username)
	sid := s.sessions.CreateSession(user.Username, models.SessionMetadata{IP: in.IP, UserAgent: in.UserAgent})
	if require2FA {
		s.sessions.SetTwoFactorPending(sid, true)
	}

	token, err := s.signer.Sign(sid)
	if err != nil {
		s.sessions.DestroySession(sid)
		return nil, fmt.Errorf("sign session cookie: %w", err)
	}

	s.audit.Log(ctx, "login_success", user.Username, map[string]any{"require2FA": require2FA}, in.IP)

	return &LoginResult{
		SessionID:  sid,
		Token:      token,
		User:       user,
		Require2FA: require2FA,
	}, nil
}

func (s *Service) fail(ctx context.Context, in LoginInput, reason string, err error) error {
	d := s.bruteForce.RecordAttempt(in.IP, false)
	s.audit.Log(ctx, "login_failed", in.Username, map[string]any{"reason": reason}, in.IP)

	st := s.bruteForce.Status(in.IP)
	if s.notifier != nil {
		go s.notifier.NotifyLoginFailure(context.WithoutCancel(ctx), in.Username, in.IP, st.Attempts)
	}

	if d.Allowed {
		return err
	}

	s.audit.Log(ctx, "login_locked", in.Username, map[string]any{"attempts": st.Attempts}, in.IP)
	if s.notifier != nil && d.UnlockTime != nil {
		go s.notifier.NotifyAccountLocked(context.WithoutCancel(ctx), in.Username, in.IP, *d.UnlockTime)
	}
	return lockout(d.UnlockTime, st.RemainingTime)
}

func lockout(unlock *time.Time, remaining time.Duration) error {
	e := &LockoutError{RetryAfter: remaining}
	if unlock != nil {
		e.UnlockTime = *unlock
	}
	return e
}

// VerifyResult reports the outcome of a second-factor check
type VerifyResult struct {
	Username       string
	UsedBackupCode bool
	RemainingCodes int
}

// Verify2FA promotes a pending session after a valid TOTP token or backup code.
// Bad codes count toward the same lockout as failed passwords.
func (s *Service) Verify2FA(ctx context.Context, sessionID, token, backupCode, ip string) (*VerifyResult, error) {
	sess := s.sessions.GetSession(sessionID)
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	if st := s.bruteForce.Status(ip); st.Locked {
		s.audit.Log(ctx, "login_locked", sess.Username, map[string]any{"reason": "locked_out", "stage": "2fa"}, ip)
		return nil, lockout(st.UnlockTime, st.RemainingTime)
	}

	res := &VerifyResult{Username: sess.Username}
	var ok bool
	switch {
	case backupCode != "":
		remaining, valid, err := s.twoFactor.VerifyBackupCode(ctx, sess.Username, backupCode)
		if err != nil {
			return nil, err
		}
		ok = valid
		res.UsedBackupCode = true
		res.RemainingCodes = remaining
	case token != "":
		ok = s.twoFactor.VerifyToken(sess.Username, token)
	}

	if !ok {
		s.audit.Log(ctx, "2fa_failed", sess.Username, map[string]any{"backupCode": backupCode != ""}, ip)
		d := s.bruteForce.RecordAttempt(ip, false)
		if d.Allowed {
			return nil, ErrInvalidTOTP
		}
		s.audit.Log(ctx, "login_locked", sess.Username, map[string]any{"stage": "2fa"}, ip)
		if s.notifier != nil && d.UnlockTime != nil {
			go s.notifier.NotifyAccountLocked(context.WithoutCancel(ctx), sess.Username, ip, *d.UnlockTime)
		}
		return nil, lockout(d.UnlockTime, s.bruteForce.Status(ip).RemainingTime)
	}

	s.bruteForce.RecordAttempt(ip, true)
	s.sessions.MarkTwoFactorVerified(sessionID)
	s.audit.Log(ctx, "2fa_success", sess.Username, map[string]any{"backupCode": res.UsedBackupCode}, ip)
	return res, nil
}

// Authenticate resolves a signed cookie to its live session and refreshes
// its activity time
func (s *Service) Authenticate(cookie string) (*models.Session, error) {
	sid, err := s.signer.Verify(cookie)
	if err != nil {
		return nil, err
	}
	sess := s.sessions.GetSession(sid)
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if !s.users.IsActive(sess.Username) {
		s.sessions.DestroySession(sid)
		return nil, ErrAccountDisabled
	}
	s.sessions.UpdateActivity(sid)
	return sess, nil
}

// Logout destroys the session
func (s *Service) Logout(ctx context.Context, sessionID, ip string) {
	sess := s.sessions.GetSession(sessionID)
	if sess == nil {
		return
	}
	s.sessions.DestroySession(sessionID)
	s.audit.Log(ctx, "logout", sess.Username, nil, ip)
}

// ChangePassword verifies the current password, stores the new one and ends
// every other session of the user
func (s *Service) ChangePassword(ctx context.Context, username, current, next, keepSession, ip string) error {
	if err := s.users.ChangePassword(ctx, username, current, next); err != nil {
		if errors.Is(err, ErrWrongPassword) {
			s.audit.Log(ctx, "password_change_failed", username, nil, ip)
		}
		return err
	}

	ended := s.sessions.DestroyUserSessions(username, keepSession)
	s.audit.Log(ctx, "password_changed", username, map[string]any{"sessionsEnded": ended}, ip)
	if s.notifier != nil {
		go s.notifier.NotifyPasswordChanged(context.WithoutCancel(ctx), username)
	}
	return nil
}

// CookieMaxAge is the session cookie lifetime in seconds
func (s *Service) CookieMaxAge() int {
	return s.signer.MaxAge()
}
