package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillerstead/admin/internal/models"
)

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
		match   bool
	}{
		{"content:read", "content:read", true},
		{"content:read", "content:write", false},
		{"*", "settings:write", true},
		{"content:*", "content:read", true},
		{"content:*", "content:write", true},
		{"content:*", "settings:read", false},
		{"content:*", "contents:read", false},
	}
	for _, tt := range tests {
		if got := ParsePermission(tt.pattern).Matches(tt.want); got != tt.match {
			t.Errorf("%s matches %s = %v, want %v", tt.pattern, tt.want, got, tt.match)
		}
	}
}

func TestRoleManager_Seeds(t *testing.T) {
	m := NewRoleManager()

	role, ok := m.UserRole(AdminUsername)
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, role)
	assert.True(t, m.HasPermission(AdminUsername, "users:write"))
	assert.True(t, m.HasPermission(AdminUsername, "anything:at-all"))

	roles := m.ListRoles()
	require.Len(t, roles, 3)
	assert.Equal(t, "admin", roles[0].Name)
	assert.Equal(t, "Full system access", roles[0].Description)
	assert.Equal(t, []string{"content:read", "calculator:read", "settings:read"}, m.RolePermissions(models.RoleViewer))
	assert.Nil(t, m.RolePermissions("ghost"))
}

func TestRoleManager_HasPermission(t *testing.T) {
	m := NewRoleManager()

	assert.False(t, m.HasPermission("nobody", "content:read"), "unassigned users are denied")

	require.NoError(t, m.AssignRole("ed", models.RoleEditor))
	assert.True(t, m.HasPermission("ed", "calculator:write"))
	assert.False(t, m.HasPermission("ed", "settings:read"))
	assert.False(t, m.HasPermission("ed", "users:read"))

	require.NoError(t, m.CreateRole("content-admin", []string{"content:*"}, ""))
	require.NoError(t, m.AssignRole("cam", "content-admin"))
	assert.True(t, m.HasPermission("cam", "content:read"))
	assert.True(t, m.HasPermission("cam", "content:write"))
	assert.False(t, m.HasPermission("cam", "settings:read"))

	assert.True(t, m.HasAnyPermission("ed", "users:read", "calculator:read"))
	assert.False(t, m.HasAnyPermission("ed", "users:read", "settings:write"))
	assert.False(t, m.HasAnyPermission("ed"))
}

func TestRoleManager_Errors(t *testing.T) {
	m := NewRoleManager()

	err := m.CreateRole(models.RoleEditor, []string{"*"}, "")
	assert.ErrorIs(t, err, ErrRoleExists)
	assert.EqualError(t, err, "role already exists: editor")

	err = m.AssignRole("ed", "superuser")
	assert.ErrorIs(t, err, ErrUnknownRole)
	_, ok := m.UserRole("ed")
	assert.False(t, ok)
}

func TestRoleManager_Assignments(t *testing.T) {
	m := NewRoleManager()
	m.LoadAssignments([]models.PublicUser{
		{Username: "ed", Role: models.RoleEditor},
		{Username: "vi", Role: models.RoleViewer},
		{Username: "odd", Role: "retired-role"},
	})

	assert.True(t, m.RoleExists(models.RoleViewer))
	assert.False(t, m.RoleExists("retired-role"))

	list := m.ListUserRoles()
	require.Len(t, list, 3)
	assert.Equal(t, UserRole{Username: "admin", Role: "admin", Permissions: []string{"*"}}, list[0])
	assert.Equal(t, "ed", list[1].Username)
	assert.Equal(t, "vi", list[2].Username)

	m.RemoveUser("ed")
	assert.False(t, m.HasPermission("ed", "content:read"))
	assert.Len(t, m.ListUserRoles(), 2)
}
