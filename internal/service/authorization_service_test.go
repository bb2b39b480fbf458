package service_test

import (
	"context"
	"errors"
	"testing"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grantRole creates a custom role holding the given levels and returns its id.
func (f *fixture) grantRole(t *testing.T, name string, levels map[rbac.Key]rbac.Level) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	role, err := f.roleSvc.CreateRole(ctx, service.CreateRoleRequest{Name: name})
	require.NoError(t, err)
	id := uuid.MustParse(role.ID)

	req := service.UpdateRolePermissionsRequest{}
	for key, level := range levels {
		perm := model.Permission{Key: key.String()}
		require.NoError(t, f.roles.FindOrCreatePermission(ctx, &perm))
		req.Permissions = append(req.Permissions, service.PermissionLevelInput{Key: key.String(), Level: level})
	}
	_, err = f.roleSvc.UpdateRolePermissions(ctx, uuid.Nil, id, req)
	require.NoError(t, err)
	return id
}

func (f *fixture) assign(t *testing.T, u *model.User, roleIDs ...uuid.UUID) {
	t.Helper()
	_, err := f.roleSvc.AssignRolesToUser(context.Background(), uuid.Nil, u.ID, service.AssignRolesRequest{RoleIDs: roleIDs})
	require.NoError(t, err)
}

func TestAuthorizeMaxWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "max@example.com")

	manager := f.grantRole(t, "Team Manager", map[rbac.Key]rbac.Level{rbac.TimeApprove: rbac.Authorized})
	employee := f.grantRole(t, "Team Employee", map[rbac.Key]rbac.Level{rbac.TimeApprove: rbac.Limited})
	f.assign(t, u, manager, employee)

	decision, err := f.authz.Authorize(ctx, u.ID, rbac.Require(rbac.TimeApprove))
	require.NoError(t, err)
	assert.Equal(t, rbac.Authorized, decision.Levels[rbac.TimeApprove.String()])
	assert.False(t, decision.Scope(rbac.TimeApprove).Limited)
	assert.False(t, decision.Limited())
}

func TestAuthorizeAddingRoleNeverLowersLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "mono@example.com")

	strong := f.grantRole(t, "Strong", map[rbac.Key]rbac.Level{rbac.TimeList: rbac.Authorized})
	weak := f.grantRole(t, "Weak", map[rbac.Key]rbac.Level{rbac.TimeList: rbac.Forbidden, rbac.TimeCreate: rbac.Limited})

	f.assign(t, u, strong)
	before, err := f.authz.EffectivePermissions(ctx, u.ID)
	require.NoError(t, err)

	f.assign(t, u, strong, weak)
	after, err := f.authz.EffectivePermissions(ctx, u.ID)
	require.NoError(t, err)

	for key, level := range before {
		assert.GreaterOrEqual(t, after[key], level, key)
	}
	assert.Equal(t, rbac.Limited, after[rbac.TimeCreate.String()])
}

func TestAuthorizeLimited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "lim@example.com")
	acme := f.companyWithMembers(t, "Acme", u)

	role := f.grantRole(t, "Staff", map[rbac.Key]rbac.Level{
		rbac.TimeApprove:   rbac.Limited,
		rbac.SchedulesList: rbac.Limited,
	})
	f.assign(t, u, role)

	t.Run("authorized requirement fails with the actual level", func(t *testing.T) {
		_, err := f.authz.Authorize(ctx, u.ID, rbac.Require(rbac.TimeApprove))
		require.ErrorIs(t, err, apperror.ErrForbidden)

		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "time:approve", appErr.Fields["key"])
		assert.Equal(t, "AUTHORIZED", appErr.Fields["required"])
		assert.Equal(t, "LIMITED", appErr.Fields["actual"])
	})

	t.Run("limited requirement carries company scope", func(t *testing.T) {
		decision, err := f.authz.Authorize(ctx, u.ID, rbac.RequireLimited(rbac.TimeApprove))
		require.NoError(t, err)

		scope := decision.Scope(rbac.TimeApprove)
		assert.True(t, scope.Limited)
		assert.Equal(t, u.ID, scope.UserID)
		assert.Equal(t, []uuid.UUID{acme.ID}, scope.CompanyIDs)
	})

	t.Run("non company resources get an empty company set", func(t *testing.T) {
		decision, err := f.authz.Authorize(ctx, u.ID, rbac.RequireLimited(rbac.SchedulesList))
		require.NoError(t, err)
		scope := decision.Scope(rbac.SchedulesList)
		assert.True(t, scope.Limited)
		assert.Empty(t, scope.CompanyIDs)
	})

	t.Run("missing grant reports none", func(t *testing.T) {
		_, err := f.authz.Authorize(ctx, u.ID, rbac.RequireLimited(rbac.RatesList))
		require.ErrorIs(t, err, apperror.ErrForbidden)

		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "none", appErr.Fields["actual"])
	})

	t.Run("first unmet requirement fails the whole check", func(t *testing.T) {
		_, err := f.authz.Authorize(ctx, u.ID, rbac.RequireLimited(rbac.SchedulesList), rbac.Require(rbac.RolesManage))
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})
}

func TestAuthorizeUserWithoutRoles(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "nobody@example.com")

	_, err := f.authz.Authorize(context.Background(), u.ID, rbac.RequireLimited(rbac.TimeList))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
