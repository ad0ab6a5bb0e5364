package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classtream/lectures-client/domain"
)

func TestRoleResolver_NewPrincipalDefaultsToStudent(t *testing.T) {
	users := newFakeUserStore()
	r := NewRoleResolver(users, zap.NewNop())

	role, err := r.Resolve(context.Background(), "u1", "u1@example.edu")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleStudent, role)
	assert.Equal(t, 1, users.creates)
	assert.Equal(t, domain.RoleStudent, users.roles["u1"])
	assert.Equal(t, "u1@example.edu", users.emails["u1"])
}

func TestRoleResolver_ExistingPrincipalKeepsStoredRole(t *testing.T) {
	users := newFakeUserStore()
	users.roles["u2"] = domain.RoleInstructor
	r := NewRoleResolver(users, zap.NewNop())

	role, err := r.Resolve(context.Background(), "u2", "u2@example.edu")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleInstructor, role)
	assert.Zero(t, users.creates, "no write for an already-initialized principal")
}

func TestRoleResolver_ResolveIsIdempotent(t *testing.T) {
	users := newFakeUserStore()
	r := NewRoleResolver(users, zap.NewNop())

	for i := 0; i < 3; i++ {
		role, err := r.Resolve(context.Background(), "u1", "u1@example.edu")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleStudent, role)
	}
	assert.Equal(t, 1, users.creates)
	assert.Len(t, users.roles, 1)
}

func TestRoleResolver_LookupFailurePropagates(t *testing.T) {
	users := newFakeUserStore()
	users.readErr = errors.New("store unavailable")
	r := NewRoleResolver(users, zap.NewNop())

	_, err := r.Resolve(context.Background(), "u1", "u1@example.edu")
	require.Error(t, err)
	assert.ErrorIs(t, err, users.readErr)
}
