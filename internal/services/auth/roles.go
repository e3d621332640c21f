package auth

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tillerstead/admin/internal/models"
)

// Permission is a parsed "category:action" pattern. "*" matches everything
// and "category:*" matches every action in the category.
type Permission struct {
	Raw      string
	Category string
	Action   string
	All      bool
}

// ParsePermission splits a pattern into its parts
func ParsePermission(raw string) Permission {
	p := Permission{Raw: raw}
	if raw == "*" {
		p.All = true
		return p
	}
	p.Category, p.Action, _ = strings.Cut(raw, ":")
	return p
}

// Matches reports whether the pattern grants want.
// Order: exact, then "*", then "category:*".
func (p Permission) Matches(want string) bool {
	if p.Raw == want {
		return true
	}
	if p.All {
		return true
	}
	if p.Action == "*" {
		category, _, _ := strings.Cut(want, ":")
		return category == p.Category
	}
	return false
}

// Role is a named permission set
type Role struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Description string   `json:"description,omitempty"`

	matchers []Permission
}

// UserRole is one row of ListUserRoles
type UserRole struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// RoleManager keeps role definitions and user assignments in memory.
// Assignments are rebuilt from the user store at startup.
type RoleManager struct {
	mu        sync.RWMutex
	roles     map[string]*Role
	userRoles map[string]string
}

// NewRoleManager seeds admin, editor and viewer and assigns admin to admin
func NewRoleManager() *RoleManager {
	m := &RoleManager{
		roles:     make(map[string]*Role),
		userRoles: map[string]string{AdminUsername: models.RoleAdmin},
	}
	m.define(models.RoleAdmin, []string{"*"}, "Full system access")
	m.define(models.RoleEditor, []string{"content:read", "content:write", "calculator:read", "calculator:write"}, "Can edit content and calculators")
	m.define(models.RoleViewer, []string{"content:read", "calculator:read", "settings:read"}, "Read-only access")
	return m
}

func (m *RoleManager) define(name string, perms []string, description string) {
	r := &Role{
		Name:        name,
		Permissions: append([]string(nil), perms...),
		Description: description,
	}
	for _, p := range perms {
		r.matchers = append(r.matchers, ParsePermission(p))
	}
	m.roles[name] = r
}

// LoadAssignments assigns every user its stored role, skipping unknown roles
func (m *RoleManager) LoadAssignments(users []models.PublicUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		if _, ok := m.roles[u.Role]; ok {
			m.userRoles[u.Username] = u.Role
		}
	}
}

// HasPermission reports whether username's role grants permission
func (m *RoleManager) HasPermission(username, permission string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name, ok := m.userRoles[username]
	if !ok {
		return false
	}
	role, ok := m.roles[name]
	if !ok {
		return false
	}
	for _, p := range role.matchers {
		if p.Matches(permission) {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether any of permissions is granted
func (m *RoleManager) HasAnyPermission(username string, permissions ...string) bool {
	for _, p := range permissions {
		if m.HasPermission(username, p) {
			return true
		}
	}
	return false
}

// CreateRole defines a new role
func (m *RoleManager) CreateRole(name string, permissions []string, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roles[name]; ok {
		return fmt.Errorf("%w: %s", ErrRoleExists, name)
	}
	m.define(name, permissions, description)
	return nil
}

// AssignRole sets username's role
func (m *RoleManager) AssignRole(username, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roles[role]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	m.userRoles[username] = role
	return nil
}

// RoleExists reports whether name is defined
func (m *RoleManager) RoleExists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.roles[name]
	return ok
}

// UserRole returns the role assigned to username
func (m *RoleManager) UserRole(username string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.userRoles[username]
	return r, ok
}

// RolePermissions returns the patterns of role, nil when unknown
func (m *RoleManager) RolePermissions(role string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.roles[role]; ok {
		return append([]string(nil), r.Permissions...)
	}
	return nil
}

// ListRoles returns all roles sorted by name
func (m *RoleManager) ListRoles() []Role {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, Role{
			Name:        r.Name,
			Permissions: append([]string(nil), r.Permissions...),
			Description: r.Description,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListUserRoles returns every assignment with its permissions
func (m *RoleManager) ListUserRoles() []UserRole {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]UserRole, 0, len(m.userRoles))
	for user, role := range m.userRoles {
		ur := UserRole{Username: user, Role: role}
		if r, ok := m.roles[role]; ok {
			ur.Permissions = append([]string(nil), r.Permissions...)
		}
		out = append(out, ur)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// RemoveUser drops username's assignment
func (m *RoleManager) RemoveUser(username string) {
	m.mu.Lock()
	delete(m.userRoles, username)
	m.mu.Unlock()
}
