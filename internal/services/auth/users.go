package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/storage"
)

// AdminUsername is the built-in account that can never be removed
const AdminUsername = "admin"

const (
	bcryptCost       = 10
	minPasswordLen   = 8
	resetTokenExpiry = time.Hour
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidateUsername checks the username shape
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateEmail checks for a local@domain.tld shape
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum length
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// CreateUserInput contains new account data
type CreateUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserInput holds optional changes. The username is never changed.
type UpdateUserInput struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// UserManager owns user records and writes every change through to the store
type UserManager struct {
	store storage.UserStore
	log   *zap.Logger
	now   func() time.Time
	cost  int

	mu    sync.RWMutex
	users map[string]*models.User
}

// NewUserManager loads all users from store
func NewUserManager(ctx context.Context, store storage.UserStore, log *zap.Logger) (*UserManager, error) {
	m := &UserManager{
		store: store,
		log:   log,
		now:   time.Now,
		cost:  bcryptCost,
		users: make(map[string]*models.User),
	}

	users, err := store.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		m.users[u.Username] = u
	}

	return m, nil
}

// EnsureAdmin creates the admin account when it does not exist. If password
// is empty a random one is generated and returned so the caller can show it once.
func (m *UserManager) EnsureAdmin(ctx context.Context, email, password string) (string, error) {
	m.mu.RLock()
	_, exists := m.users[AdminUsername]
	m.mu.RUnlock()
	if exists {
		return "", nil
	}

	generated := ""
	if password == "" {
		b := make([]byte, 12)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		password = hex.EncodeToString(b)
		generated = password
	}

	_, err := m.CreateUser(ctx, CreateUserInput{
		Username: AdminUsername,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return "", fmt.Errorf("seed admin: %w", err)
	}
	return generated, nil
}

// CreateUser validates input, hashes the password and stores the user
func (m *UserManager) CreateUser(ctx context.Context, in CreateUserInput) (models.PublicUser, error) {
	if err := ValidateUsername(in.Username); err != nil {
		return models.PublicUser{}, err
	}
	if err := ValidateEmail(in.Email); err != nil {
		return models.PublicUser{}, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return models.PublicUser{}, err
	}
	if in.Role == "" {
		in.Role = models.RoleViewer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), m.cost)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("failed to hash password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[in.Username]; exists {
		return models.PublicUser{}, ErrUserExists
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Created:      m.now().UTC(),
		IsActive:     true,
	}
	if err := m.store.SaveUser(ctx, user); err != nil {
		return models.PublicUser{}, fmt.Errorf("failed to save user: %w", err)
	}
	m.users[user.Username] = user

	return user.Public(), nil
}

// UpdateUser applies the non-nil fields of in
func (m *UserManager) UpdateUser(ctx context.Context, username string, in UpdateUserInput) (models.PublicUser, error) {
	if in.Email != nil {
		if err := ValidateEmail(*in.Email); err != nil {
			return models.PublicUser{}, err
		}
	}

	var hash []byte
	if in.Password != nil {
		if err := ValidatePassword(*in.Password); err != nil {
			return models.PublicUser{}, err
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(*in.Password), m.cost)
		if err != nil {
			return models.PublicUser{}, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	return m.mutate(ctx, username, func(u *models.User) error {
		if in.Email != nil {
			u.Email = *in.Email
		}
		if in.Role != nil && *in.Role != "" {
			u.Role = *in.Role
		}
		if hash != nil {
			u.PasswordHash = string(hash)
		}
		return nil
	})
}

// DeleteUser removes a user. The admin account is protected.
func (m *UserManager) DeleteUser(ctx context.Context, username string) error {
	if username == AdminUsername {
		return ErrProtectedUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[username]; !ok {
		return ErrUserNotFound
	}
	if err := m.store.DeleteUser(ctx, username); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	delete(m.users, username)
	return nil
}

// ChangePassword verifies current before setting next
func (m *UserManager) ChangePassword(ctx context.Context, username, current, next string) error {
	user := m.lookup(username)
	if user == nil {
		return ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), m.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = m.mutate(ctx, username, func(u *models.User) error {
		u.PasswordHash = string(hash)
		return nil
	})
	return err
}

// ToggleUserStatus activates or deactivates an account
func (m *UserManager) ToggleUserStatus(ctx context.Context, username string, active bool) (models.PublicUser, error) {
	if username == AdminUsername && !active {
		return models.PublicUser{}, ErrProtectedUser
	}
	return m.mutate(ctx, username, func(u *models.User) error {
		u.IsActive = active
		return nil
	})
}

// GenerateResetToken issues a single-use token valid for one hour
func (m *UserManager) GenerateResetToken(ctx context.Context, username string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	expiry := m.now().Add(resetTokenExpiry).UTC()

	_, err := m.mutate(ctx, username, func(u *models.User) error {
		u.ResetToken = token
		u.ResetTokenExpiry = &expiry
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// ResetPasswordWithToken sets a new password and clears the token
func (m *UserManager) ResetPasswordWithToken(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" {
		return "", ErrInvalidResetToken
	}

	m.mu.RLock()
	var username string
	now := m.now()
	for _, u := range m.users {
		if u.ResetTokenValid(token, now) {
			username = u.Username
			break
		}
	}
	m.mu.RUnlock()

	if username == "" {
		return "", ErrInvalidResetToken
	}
	if err := ValidatePassword(newPassword); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), m.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = m.mutate(ctx, username, func(u *models.User) error {
		// Another reset may have consumed it meanwhile
		if !u.ResetTokenValid(token, m.now()) {
			return ErrInvalidResetToken
		}
		u.PasswordHash = string(hash)
		u.ResetToken = ""
		u.ResetTokenExpiry = nil
		return nil
	})
	if err != nil {
		return "", err
	}
	return username, nil
}

// VerifyPassword reports whether password matches the stored hash
func (m *UserManager) VerifyPassword(username, password string) bool {
	user := m.lookup(username)
	if user == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// UpdateLastLogin stamps the login time
func (m *UserManager) UpdateLastLogin(ctx context.Context, username string) error {
	now := m.now().UTC()
	_, err := m.mutate(ctx, username, func(u *models.User) error {
		u.LastLogin = &now
		return nil
	})
	return err
}

// SetTwoFactorEnabled mirrors the 2FA state onto the user record
func (m *UserManager) SetTwoFactorEnabled(ctx context.Context, username string, enabled bool) error {
	_, err := m.mutate(ctx, username, func(u *models.User) error {
		u.TwoFactorEnabled = enabled
		return nil
	})
	return err
}

// GetUser returns the public view of a user, or false when absent
func (m *UserManager) GetUser(username string) (models.PublicUser, bool) {
	user := m.lookup(username)
	if user == nil {
		return models.PublicUser{}, false
	}
	return user.Public(), true
}

// IsActive reports whether the user exists and is active
func (m *UserManager) IsActive(username string) bool {
	user := m.lookup(username)
	return user != nil && user.IsActive
}

// ListUsers returns all users sorted by username
func (m *UserManager) ListUsers() []models.PublicUser {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.PublicUser, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Public())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Stats summarizes accounts by state and role
func (m *UserManager) Stats() models.UserStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := models.UserStats{ByRole: make(map[string]int)}
	for _, u := range m.users {
		stats.Total++
		if u.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if u.TwoFactorEnabled {
			stats.With2FA++
		}
		stats.ByRole[u.Role]++
	}
	return stats
}

// lookup returns a copy of the stored record
func (m *UserManager) lookup(username string) *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[strings.TrimSpace(username)]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// mutate applies fn to a copy, persists it, then swaps it in
func (m *UserManager) mutate(ctx context.Context, username string, fn func(*models.User) error) (models.PublicUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.users[username]
	if !ok {
		return models.PublicUser{}, ErrUserNotFound
	}

	next := *current
	if err := fn(&next); err != nil {
		return models.PublicUser{}, err
	}
	if err := m.store.SaveUser(ctx, &next); err != nil {
		return models.PublicUser{}, fmt.Errorf("failed to save user: %w", err)
	}
	m.users[username] = &next

	return next.Public(), nil
}
