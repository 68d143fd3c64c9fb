package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/birthcare-portal/internal/model"
)

var secret = []byte("test-secret")

func TestSessionRoundTrip(t *testing.T) {
	in := model.Session{
		UserID:      42,
		Name:        "Mara",
		Email:       "mara@example.com",
		Role:        model.UserRoleMidwife,
		Permissions: model.NewPermissionSet(model.PermissionViewPrenatal, model.PermissionScheduleVisits),
	}
	now := time.Now()
	token, err := IssueToken(in, secret, time.Hour, now)
	require.NoError(t, err)

	out, err := ParseSession(token, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.UserID)
	assert.Equal(t, model.UserRoleMidwife, out.Role)
	assert.Equal(t, "mara@example.com", out.Email)
	assert.True(t, out.Permissions.Has(model.PermissionScheduleVisits))
	assert.False(t, out.Permissions.Has(model.PermissionManageRoles))
	assert.Equal(t, token, out.Token)
	assert.WithinDuration(t, now.Add(time.Hour), out.ExpiresAt, time.Second)
}

func TestParseSessionRejects(t *testing.T) {
	valid := model.Session{UserID: 1, Role: model.UserRoleStaff}

	wrongKey, err := IssueToken(valid, []byte("other"), time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := IssueToken(valid, secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	noUser, err := IssueToken(model.Session{Role: model.UserRoleStaff}, secret, time.Hour, time.Now())
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":   "not-a-token",
		"wrong key": wrongKey,
		"expired":   expired,
		"no user":   noUser,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSession(token, secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCan(t *testing.T) {
	perms := model.NewPermissionSet(model.PermissionManageRooms)

	assert.True(t, Can(model.UserRoleStaff, perms, model.PermissionManageRooms))
	assert.False(t, Can(model.UserRoleStaff, perms, model.PermissionManageRoles))
	assert.True(t, Can(model.UserRoleStaff, nil, ""))
	for _, p := range model.AllPermissions {
		assert.True(t, Can(model.UserRoleAdmin, nil, p), p)
	}
}

func TestAuthorize(t *testing.T) {
	staff := &model.Session{UserID: 2, Role: model.UserRoleStaff, Permissions: model.NewPermissionSet(model.PermissionManageRooms)}
	admin := &model.Session{UserID: 1, Role: model.UserRoleAdmin}

	tests := []struct {
		name    string
		session *model.Session
		req     Requirement
		want    Decision
	}{
		{"no session", nil, Requirement{}, Decision{RedirectTo: LoginPath}},
		{"session only", staff, Requirement{}, Decision{Allow: true}},
		{"has permission", staff, Requirement{Permission: model.PermissionManageRooms}, Decision{Allow: true}},
		{"missing permission", staff, Requirement{Permission: model.PermissionManageRoles}, Decision{RedirectTo: UnauthorizedPath}},
		{"wrong role", staff, Requirement{Roles: []model.UserRole{model.UserRoleMidwife}}, Decision{RedirectTo: UnauthorizedPath}},
		{"admin bypasses role", admin, Requirement{Roles: []model.UserRole{model.UserRoleMidwife}, Permission: model.PermissionManageRoles}, Decision{Allow: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.session, tt.req))
		})
	}
}
