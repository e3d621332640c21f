package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/storage"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type memUserStore struct {
	mu      sync.Mutex
	users   map[string]models.User
	failErr error
}

var _ storage.UserStore = (*memUserStore)(nil)

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]models.User{}}
}

func (s *memUserStore) LoadUsers(context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.users {
		u := u
		out = append(out, &u)
	}
	return out, nil
}

func (s *memUserStore) SaveUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.users[u.Username] = *u
	return nil
}

func (s *memUserStore) DeleteUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
	return nil
}

func (s *memUserStore) get(username string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	return u, ok
}

func newTestUserManager(t *testing.T, store *memUserStore) (*UserManager, *fakeClock) {
	t.Helper()
	m, err := NewUserManager(context.Background(), store, zap.NewNop())
	require.NoError(t, err)
	clock := newFakeClock()
	m.now = clock.Now
	m.cost = bcrypt.MinCost
	return m, clock
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ab", ErrInvalidUsername},
		{"abc", nil},
		{"tile_setter-01", nil},
		{"this-name-is-way-too-long", ErrInvalidUsername},
		{"bad name", ErrInvalidUsername},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.err, ValidateUsername(tt.name), tt.name)
	}

	assert.NoError(t, ValidateEmail("jo@example.com"))
	assert.ErrorIs(t, ValidateEmail("jo@example"), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("jo @example.com"), ErrInvalidEmail)

	assert.ErrorIs(t, ValidatePassword("short"), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("12345678"))
}

func TestUserManager_CreateUser(t *testing.T) {
	ctx := context.Background()
	store := newMemUserStore()
	m, _ := newTestUserManager(t, store)

	_, err := m.CreateUser(ctx, CreateUserInput{Username: "jo", Email: "jo@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidUsername)

	u, err := m.CreateUser(ctx, CreateUserInput{Username: "joanne", Email: "jo@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, u.Role)
	assert.True(t, u.IsActive)

	stored, ok := store.get("joanne")
	require.True(t, ok)
	assert.NotEqual(t, "password1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password1")))

	_, err = m.CreateUser(ctx, CreateUserInput{Username: "joanne", Email: "x@example.com", Password: "password2"})
	assert.ErrorIs(t, err, ErrUserExists)

	assert.True(t, m.VerifyPassword("joanne", "password1"))
	assert.False(t, m.VerifyPassword("joanne", "password2"))
	assert.False(t, m.VerifyPassword("nobody", "password1"))
}

func TestUserManager_StoreFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newMemUserStore()
	m, _ := newTestUserManager(t, store)

	_, err := m.CreateUser(ctx, CreateUserInput{Username: "joanne", Email: "jo@example.com", Password: "password1"})
	require.NoError(t, err)

	store.failErr = errors.New("disk full")
	email := "new@example.com"
	_, err = m.UpdateUser(ctx, "joanne", UpdateUserInput{Email: &email})
	require.Error(t, err)

	u, ok := m.GetUser("joanne")
	require.True(t, ok)
	assert.Equal(t, "jo@example.com", u.Email)
}

func TestUserManager_UpdateUser(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestUserManager(t, newMemUserStore())

	_, err := m.CreateUser(ctx, CreateUserInput{Username: "joanne", Email: "jo@example.com", Password: "password1"})
	require.NoError(t, err)

	email, role, pw := "joanne@example.com", models.RoleEditor, "newpassword"
	u, err := m.UpdateUser(ctx, "joanne", UpdateUserInput{Email: &email, Role: &role, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "joanne", u.Username)
	assert.Equal(t, email, u.Email)
	assert.Equal(t, role, u.Role)
	assert.True(t, m.VerifyPassword("joanne", "newpassword"))

	bad := "nope"
	_, err = m.UpdateUser(ctx, "joanne", UpdateUserInput{Email: &bad})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = m.UpdateUser(ctx, "ghost", UpdateUserInput{Email: &email})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserManager_AdminIsProtected(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestUserManager(t, newMemUserStore())

	generated, err := m.EnsureAdmin(ctx, "admin@tillerstead.com", "")
	require.NoError(t, err)
	require.NotEmpty(t, generated)
	assert.True(t, m.VerifyPassword(AdminUsername, generated))

	again, err := m.EnsureAdmin(ctx, "admin@tillerstead.com", "")
	require.NoError(t, err)
	assert.Empty(t, again)

	assert.ErrorIs(t, m.DeleteUser(ctx, AdminUsername), ErrProtectedUser)
	_, err = m.ToggleUserStatus(ctx, AdminUsername, false)
	assert.ErrorIs(t, err, ErrProtectedUser)

	u, ok := m.GetUser(AdminUsername)
	require.True(t, ok)
	assert.True(t, u.IsActive)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestUserManager_DeleteAndToggle(t *testing.T) {
	ctx := context.Background()
	store := newMemUserStore()
	m, _ := newTestUserManager(t, store)

	_, err := m.CreateUser(ctx, CreateUserInput{Username: "joanne", Email: "jo@example.com", Password: "password1"})
	require.NoError(t, err)

	u, err := m.ToggleUserStatus(ctx, "joanne", false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.False(t, m.IsActive("joanne"))

	require.NoError(t, m.DeleteUser(ctx, "joanne"))
	_, ok := m.GetUser("joanne")
	assert.False(t, ok)
	_, ok = store.get("joanne")
	assert.False(t, ok)

	assert.ErrorIs(t, m.DeleteUser(ctx, "joanne"), ErrUserNotFound)
}

func TestUserManager_ChangePassword(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestUserManager(t, newMemUserStore())

	_, err := m.CreateUser(ctx, CreateUserInput{Username: "joanne", Email: "jo@example.com", Password: "password1"})
	require.NoError(t, err)

	assert.ErrorIs(t, m.ChangePassword(ctx, "joanne", "wrong-one", "password2"), ErrWrongPassword)
	assert.ErrorIs(t, m.ChangePassword(ctx, "joanne", "password1", "short"), ErrWeakPassword)
	require.NoError(t, m.ChangePassword(ctx, "joanne", "password1", "password2"))
	assert.True(t, m.VerifyPassword("joanne", "password2"))
}

func TestUserManager_ResetToken(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestUserManager(t, newMemUserStore())

	_, err := m.CreateUser(ctx, CreateUserInput{Username: "joanne", Email: "jo@example.com", Password: "password1"})
	require.NoError(t, err)

	token, err := m.GenerateResetToken(ctx, "joanne")
	require.NoError(t, err)
	assert.Len(t, token, 64)

	user, err := m.ResetPasswordWithToken(ctx, token, "password9")
	require.NoError(t, err)
	assert.Equal(t, "joanne", user)
	assert.True(t, m.VerifyPassword("joanne", "password9"))

	// Single use
	_, err = m.ResetPasswordWithToken(ctx, token, "password8")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	// Expires after an hour
	token, err = m.GenerateResetToken(ctx, "joanne")
	require.NoError(t, err)
	clock.Advance(time.Hour + time.Second)
	_, err = m.ResetPasswordWithToken(ctx, token, "password7")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	_, err = m.GenerateResetToken(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserManager_ListAndStats(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestUserManager(t, newMemUserStore())

	_, err := m.EnsureAdmin(ctx, "admin@tillerstead.com", "adminpass")
	require.NoError(t, err)
	for _, name := range []string{"carol", "bob"} {
		_, err := m.CreateUser(ctx, CreateUserInput{Username: name, Email: name + "@example.com", Password: "password1", Role: models.RoleEditor})
		require.NoError(t, err)
	}
	_, err = m.ToggleUserStatus(ctx, "carol", false)
	require.NoError(t, err)
	require.NoError(t, m.SetTwoFactorEnabled(ctx, "bob", true))
	require.NoError(t, m.UpdateLastLogin(ctx, "bob"))

	users := m.ListUsers()
	require.Len(t, users, 3)
	assert.Equal(t, []string{"admin", "bob", "carol"}, []string{users[0].Username, users[1].Username, users[2].Username})
	assert.NotNil(t, users[1].LastLogin)

	stats := m.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, 1, stats.With2FA)
	assert.Equal(t, map[string]int{"admin": 1, "editor": 2}, stats.ByRole)
}

func TestUserManager_LoadsExisting(t *testing.T) {
	ctx := context.Background()
	store := newMemUserStore()
	m, _ := newTestUserManager(t, store)
	_, err := m.CreateUser(ctx, CreateUserInput{Username: "joanne", Email: "jo@example.com", Password: "password1"})
	require.NoError(t, err)

	reloaded, err := NewUserManager(ctx, store, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, reloaded.VerifyPassword("joanne", "password1"))
}
