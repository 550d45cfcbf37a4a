package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/users"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		role   users.Role
		action Action
		want   bool
	}{
		{users.RoleRequester, CreateRequest, true},
		{users.RoleRequester, ViewCatalog, true},
		{users.RoleRequester, ManageCatalog, false},
		{users.RoleRequester, DecideRequests, false},
		{users.RoleDispatcher, DecideRequests, true},
		{users.RoleDispatcher, ReceiveStock, true},
		{users.RoleDispatcher, AdjustStock, false},
		{users.RoleDispatcher, ManageUsers, false},
		{users.RoleAdmin, AdjustStock, true},
		{users.RoleAdmin, ManageUsers, true},
		{users.Role("visitante"), ViewCatalog, false},
		{users.RoleAdmin, Action("unknown"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Allowed(tc.role, tc.action), "%s %s", tc.role, tc.action)
	}
}

func TestRequire(t *testing.T) {
	err := Require(Identity{UserID: 1, Role: users.RoleRequester}, ManageUsers)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	assert.NoError(t, Require(Identity{UserID: 1, Role: users.RoleAdmin}, ManageUsers))
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	want := Identity{UserID: 7, Name: "Ana", Role: users.RoleDispatcher}
	got, ok := FromContext(WithIdentity(context.Background(), want))
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.True(t, got.IsStaff())
	assert.False(t, got.IsAdmin())
}
