package service_test

import (
	"context"
	"testing"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleByName(t *testing.T, roles []service.RoleResponse, name string) service.RoleResponse {
	t.Helper()
	for _, r := range roles {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("role %q not found", name)
	return service.RoleResponse{}
}

func TestSeedDefaultRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.roleSvc.SeedDefaultRolesAndPermissions(ctx))
	require.NoError(t, f.roleSvc.SeedDefaultRolesAndPermissions(ctx), "seeding twice is harmless")

	roles, err := f.roleSvc.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	perms, err := f.roleSvc.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, len(rbac.Catalogue))

	admin := f.user(t, "admin@example.com")
	employee := f.user(t, "emp@example.com")
	manager := f.user(t, "mgr@example.com")
	f.assign(t, admin, uuid.MustParse(roleByName(t, roles, service.RoleAdmin).ID))
	f.assign(t, manager, uuid.MustParse(roleByName(t, roles, service.RoleManager).ID))
	f.assign(t, employee, uuid.MustParse(roleByName(t, roles, service.RoleEmployee).ID))

	t.Run("admin holds everything", func(t *testing.T) {
		eff, err := f.roleSvc.GetUserPermissions(ctx, admin.ID)
		require.NoError(t, err)
		for _, c := range rbac.Catalogue {
			assert.Equal(t, rbac.Authorized, eff[c.Key.String()], c.Key.String())
		}
	})

	t.Run("manager deletes are limited", func(t *testing.T) {
		eff, err := f.roleSvc.GetUserPermissions(ctx, manager.ID)
		require.NoError(t, err)
		assert.Equal(t, rbac.Authorized, eff[rbac.TimeApprove.String()])
		assert.Equal(t, rbac.Limited, eff[rbac.TimeDelete.String()])
		assert.Equal(t, rbac.Limited, eff[rbac.UsersDelete.String()])
		assert.NotContains(t, eff, rbac.RolesManage.String())
	})

	t.Run("employee tracks own time", func(t *testing.T) {
		eff, err := f.roleSvc.GetUserPermissions(ctx, employee.ID)
		require.NoError(t, err)
		assert.Equal(t, rbac.Limited, eff[rbac.TimeCreate.String()])
		assert.Equal(t, rbac.Limited, eff[rbac.TimeList.String()])
		assert.NotContains(t, eff, rbac.TimeApprove.String())
	})

	t.Run("system roles are protected", func(t *testing.T) {
		id := uuid.MustParse(roleByName(t, roles, service.RoleEmployee).ID)

		_, err := f.roleSvc.UpdateRole(ctx, id, service.UpdateRoleRequest{Name: "Worker"})
		assert.ErrorIs(t, err, apperror.ErrInvalidState)

		_, err = f.roleSvc.UpdateRolePermissions(ctx, admin.ID, id, service.UpdateRolePermissionsRequest{
			Permissions: []service.PermissionLevelInput{{Key: "time:approve", Level: rbac.Authorized}},
		})
		assert.ErrorIs(t, err, apperror.ErrInvalidState)

		assert.ErrorIs(t, f.roleSvc.DeleteRole(ctx, id), apperror.ErrInvalidState)
	})
}

func TestRoleAdministration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.user(t, "root@example.com")

	role, err := f.roleSvc.CreateRole(ctx, service.CreateRoleRequest{Name: "Auditor", Description: "reads the trail"})
	require.NoError(t, err)
	roleID := uuid.MustParse(role.ID)

	_, err = f.roleSvc.CreateRole(ctx, service.CreateRoleRequest{Name: "Auditor"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	t.Run("permission keys", func(t *testing.T) {
		p, err := f.roleSvc.CreatePermission(ctx, service.CreatePermissionRequest{Key: "audit:view"})
		require.NoError(t, err)
		assert.Equal(t, "audit:view", p.Key)

		_, err = f.roleSvc.CreatePermission(ctx, service.CreatePermissionRequest{Key: "audit:view"})
		assert.ErrorIs(t, err, apperror.ErrConflict)

		_, err = f.roleSvc.CreatePermission(ctx, service.CreatePermissionRequest{Key: "audit-view"})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("bulk level update", func(t *testing.T) {
		_, err := f.roleSvc.CreatePermission(ctx, service.CreatePermissionRequest{Key: "time:report"})
		require.NoError(t, err)

		perms, err := f.roleSvc.UpdateRolePermissions(ctx, admin.ID, roleID, service.UpdateRolePermissionsRequest{
			Permissions: []service.PermissionLevelInput{
				{Key: "audit:view", Level: rbac.Authorized},
				{Key: "time:report", Level: rbac.Limited},
			},
		})
		require.NoError(t, err)

		levels := map[string]rbac.Level{}
		for _, p := range perms {
			levels[p.Key] = p.Level
		}
		assert.Equal(t, map[string]rbac.Level{"audit:view": rbac.Authorized, "time:report": rbac.Limited}, levels)
		assert.EqualValues(t, 1, countAudit(t, f.db, model.ActionUpdateRoleGrants))
	})

	t.Run("unknown key aborts the whole update", func(t *testing.T) {
		_, err := f.roleSvc.UpdateRolePermissions(ctx, admin.ID, roleID, service.UpdateRolePermissionsRequest{
			Permissions: []service.PermissionLevelInput{
				{Key: "audit:view", Level: rbac.Forbidden},
				{Key: "nope:nothing", Level: rbac.Authorized},
			},
		})
		require.ErrorIs(t, err, apperror.ErrNotFound)

		perms, err := f.roleSvc.GetRolePermissions(ctx, roleID)
		require.NoError(t, err)
		for _, p := range perms {
			if p.Key == "audit:view" {
				assert.Equal(t, rbac.Authorized, p.Level)
			}
		}
	})

	t.Run("assignment replaces the role set", func(t *testing.T) {
		u := f.user(t, "assignee@example.com")
		other, err := f.roleSvc.CreateRole(ctx, service.CreateRoleRequest{Name: "Other"})
		require.NoError(t, err)
		otherID := uuid.MustParse(other.ID)

		roles, err := f.roleSvc.AssignRolesToUser(ctx, admin.ID, u.ID, service.AssignRolesRequest{RoleIDs: []uuid.UUID{roleID, otherID, roleID}})
		require.NoError(t, err)
		assert.Len(t, roles, 2)

		roles, err = f.roleSvc.AssignRolesToUser(ctx, admin.ID, u.ID, service.AssignRolesRequest{RoleIDs: []uuid.UUID{otherID}})
		require.NoError(t, err)
		require.Len(t, roles, 1)
		assert.Equal(t, "Other", roles[0].Name)

		_, err = f.roleSvc.AssignRolesToUser(ctx, admin.ID, u.ID, service.AssignRolesRequest{RoleIDs: []uuid.UUID{uuid.New()}})
		assert.ErrorIs(t, err, apperror.ErrValidation)

		roles, err = f.roleSvc.GetUserRoles(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, roles, 1, "failed assignment leaves roles untouched")

		assert.ErrorIs(t, f.roleSvc.DeleteRole(ctx, otherID), apperror.ErrInvalidState)
	})

	t.Run("rename and delete", func(t *testing.T) {
		renamed, err := f.roleSvc.UpdateRole(ctx, roleID, service.UpdateRoleRequest{Name: "Reviewer"})
		require.NoError(t, err)
		assert.Equal(t, "Reviewer", renamed.Name)

		_, err = f.roleSvc.UpdateRole(ctx, roleID, service.UpdateRoleRequest{Name: "Other"})
		assert.ErrorIs(t, err, apperror.ErrConflict)

		require.NoError(t, f.roleSvc.DeleteRole(ctx, roleID))
		_, err = f.roleSvc.GetRole(ctx, roleID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}
