package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskforge-io/taskforge/auth"
)

func TestRoleIsValid(t *testing.T) {
	assert.True(t, auth.RoleAdmin.IsValid())
	assert.True(t, auth.RoleMember.IsValid())
	assert.False(t, auth.Role("owner").IsValid())
	assert.False(t, auth.Role("").IsValid())
	assert.False(t, auth.Role("ADMIN").IsValid(), "roles are case sensitive")
}

func TestRoleOneOf(t *testing.T) {
	assert.True(t, auth.RoleAdmin.OneOf(auth.RoleAdmin))
	assert.True(t, auth.RoleMember.OneOf(auth.AllRoles()...))
	assert.False(t, auth.RoleMember.OneOf(auth.RoleAdmin))
	assert.False(t, auth.RoleAdmin.OneOf())

	// Unknown roles never pass, even against an allow list naming them.
	assert.False(t, auth.Role("owner").OneOf(auth.Role("owner")))
}

func TestParseRole(t *testing.T) {
	role, ok := auth.ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleAdmin, role)

	_, ok = auth.ParseRole("superuser")
	assert.False(t, ok)
}
