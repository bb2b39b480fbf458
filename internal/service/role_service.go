package service

import (
	"context"
	"fmt"
	"sort"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/repository"
	"hrms/pkg/logger"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description"`
}

type CreatePermissionRequest struct {
	Key         string `json:"key" binding:"required"`
	Description string `json:"description"`
}

type PermissionLevelInput struct {
	Key   string     `json:"key" binding:"required"`
	Level rbac.Level `json:"level"`
}

type UpdateRolePermissionsRequest struct {
	Permissions []PermissionLevelInput `json:"permissions" binding:"required,dive"`
}

type AssignRolesRequest struct {
	RoleIDs []uuid.UUID `json:"role_ids" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID          string     `json:"id"`
	Key         string     `json:"key"`
	Description string     `json:"description"`
	Level       rbac.Level `json:"level"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id uuid.UUID) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error

	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error)
	GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, actorID, roleID uuid.UUID, req UpdateRolePermissionsRequest) ([]PermissionResponse, error)

	GetUserRoles(ctx context.Context, userID uuid.UUID) ([]RoleResponse, error)
	AssignRolesToUser(ctx context.Context, actorID, userID uuid.UUID, req AssignRolesRequest) ([]RoleResponse, error)
	GetUserPermissions(ctx context.Context, userID uuid.UUID) (map[string]rbac.Level, error)

	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	tx    repository.TransactionManager
	roles repository.RoleRepository
	users repository.UserRepository
	audit repository.AuditRepository
	authz AuthorizationService
	log   logger.Logger
}

func NewRoleService(
	tx repository.TransactionManager,
	roles repository.RoleRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	authz AuthorizationService,
	log logger.Logger,
) RoleService {
	return &roleService{tx: tx, roles: roles, users: users, audit: audit, authz: authz, log: log}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id uuid.UUID) (*RoleResponse, error) {
	role, err := s.roles.FindByIDWithPermissions(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "role", id)
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	if _, err := s.roles.FindByName(ctx, req.Name); err == nil {
		return nil, apperror.Conflict("role '%s' already exists", req.Name).With("name", req.Name)
	}

	role := model.Role{Name: req.Name, Description: req.Description}
	if err := s.roles.Create(ctx, &role); err != nil {
		return nil, conflictOr(err, "role '%s' already exists", req.Name)
	}
	return s.GetRole(ctx, role.ID)
}

func (s *roleService) UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "role", id)
	}
	if role.IsSystem {
		return nil, apperror.InvalidState("system role '%s' cannot be modified", role.Name)
	}
	if req.Name != role.Name {
		if other, err := s.roles.FindByName(ctx, req.Name); err == nil && other.ID != role.ID {
			return nil, apperror.Conflict("role '%s' already exists", req.Name).With("name", req.Name)
		}
	}

	role.Name = req.Name
	role.Description = req.Description
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, conflictOr(err, "role '%s' already exists", req.Name)
	}
	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.roles.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "role", id)
		}
		if role.IsSystem {
			return apperror.InvalidState("cannot delete system role '%s'", role.Name)
		}
		n, err := s.roles.CountUsers(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to count role users: %w", err)
		}
		if n > 0 {
			return apperror.InvalidState("role '%s' is assigned to %d user(s)", role.Name, n)
		}
		if err := s.roles.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}
		return nil
	})
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p, rbac.Forbidden))
	}
	return res, nil
}

func (s *roleService) CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error) {
	key, err := rbac.ParseKey(req.Key)
	if err != nil {
		return nil, apperror.Validation("%v", err).With("field", "key")
	}

	existing, err := s.roles.FindPermissionsByKeys(ctx, []string{key.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to look up permission: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperror.Conflict("permission '%s' already exists", key).With("key", key.String())
	}

	perm := model.Permission{Key: key.String(), Description: req.Description}
	if err := s.roles.CreatePermission(ctx, &perm); err != nil {
		return nil, conflictOr(err, "permission '%s' already exists", key)
	}
	resp := toPermissionResponse(perm, rbac.Forbidden)
	return &resp, nil
}

// GetRolePermissions lists every known permission with the role's level,
// FORBIDDEN where the role holds no link.
func (s *roleService) GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]PermissionResponse, error) {
	role, err := s.roles.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		return nil, notFoundOr(err, "role", roleID)
	}
	perms, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	grants := role.Grants()
	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p, grants[p.Key]))
	}
	return res, nil
}

// UpdateRolePermissions upserts every (key, level) pair in one transaction.
// An unknown key aborts the whole update.
func (s *roleService) UpdateRolePermissions(ctx context.Context, actorID, roleID uuid.UUID, req UpdateRolePermissionsRequest) ([]PermissionResponse, error) {
	keys := make([]string, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		if !p.Level.Valid() {
			return nil, apperror.Validation("invalid level for '%s'", p.Key).With("field", "level")
		}
		keys = append(keys, p.Key)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.roles.FindByID(txCtx, roleID)
		if err != nil {
			return notFoundOr(err, "role", roleID)
		}
		if role.IsSystem {
			return apperror.InvalidState("permissions of system role '%s' cannot be modified", role.Name)
		}

		perms, err := s.roles.FindPermissionsByKeys(txCtx, keys)
		if err != nil {
			return fmt.Errorf("failed to fetch permissions: %w", err)
		}
		byKey := make(map[string]uuid.UUID, len(perms))
		for _, p := range perms {
			byKey[p.Key] = p.ID
		}

		links := make([]model.RolePermission, 0, len(req.Permissions))
		changes := make(map[string]string, len(req.Permissions))
		for _, p := range req.Permissions {
			permID, ok := byKey[p.Key]
			if !ok {
				return apperror.NotFound("permission '%s' not found", p.Key).With("key", p.Key)
			}
			links = append(links, model.RolePermission{RoleID: roleID, PermissionID: permID, Level: p.Level})
			changes[p.Key] = p.Level.String()
		}

		if err := s.roles.UpsertRolePermissions(txCtx, links); err != nil {
			return fmt.Errorf("failed to update permissions: %w", err)
		}
		return writeAudit(txCtx, s.audit, &actorID, model.ActionUpdateRoleGrants, roleID.String(), role.Name, map[string]any{"permissions": changes})
	})
	if err != nil {
		return nil, err
	}

	return s.GetRolePermissions(ctx, roleID)
}

func (s *roleService) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]RoleResponse, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	roles, err := s.roles.FindRolesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user roles: %w", err)
	}
	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

// AssignRolesToUser replaces the user's role set atomically.
func (s *roleService) AssignRolesToUser(ctx context.Context, actorID, userID uuid.UUID, req AssignRolesRequest) ([]RoleResponse, error) {
	ids := uniqueIDs(req.RoleIDs)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.GetByID(txCtx, userID); err != nil {
			return notFoundOr(err, "user", userID)
		}
		found, err := s.roles.FindByIDs(txCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch roles: %w", err)
		}
		if len(found) != len(ids) {
			return apperror.Validation("one or more roles do not exist").With("field", "role_ids")
		}
		if err := s.roles.ReplaceUserRoles(txCtx, userID, ids); err != nil {
			return fmt.Errorf("failed to assign roles: %w", err)
		}

		names := make([]string, 0, len(found))
		for _, r := range found {
			names = append(names, r.Name)
		}
		sort.Strings(names)
		return writeAudit(txCtx, s.audit, &actorID, model.ActionAssignUserRoles, userID.String(), "", map[string]any{"roles": names})
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserRoles(ctx, userID)
}

func (s *roleService) GetUserPermissions(ctx context.Context, userID uuid.UUID) (map[string]rbac.Level, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	eff, err := s.authz.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return eff, nil
}

// Default system roles.
const (
	RoleAdmin    = "Admin"
	RoleManager  = "Manager"
	RoleEmployee = "Employee"
)

// defaultGrants decides the seeded level of key for a system role.
// Forbidden means no link is created.
func defaultGrants(role string, key rbac.Key) rbac.Level {
	switch role {
	case RoleAdmin:
		return rbac.Authorized
	case RoleManager:
		switch key.Resource {
		case rbac.ResourceUsers, rbac.ResourceCompanies, rbac.ResourceTime, rbac.ResourceSchedules:
			if key.Action == "delete" {
				return rbac.Limited
			}
			return rbac.Authorized
		}
	case RoleEmployee:
		switch key {
		case rbac.TimeList, rbac.TimeCreate, rbac.TimeUpdate, rbac.SchedulesList, rbac.UsersView:
			return rbac.Limited
		}
	}
	return rbac.Forbidden
}

// SeedDefaultRolesAndPermissions creates the permission catalogue and the
// system roles if not already present. Existing links are overwritten with
// the default levels.
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		perms := make([]model.Permission, 0, len(rbac.Catalogue))
		for _, c := range rbac.Catalogue {
			p := model.Permission{Key: c.Key.String(), Description: c.Description}
			if err := s.roles.FindOrCreatePermission(txCtx, &p); err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", c.Key, err)
			}
			perms = append(perms, p)
		}

		roleDefinitions := []struct {
			Name        string
			Description string
		}{
			{RoleAdmin, "Full system access"},
			{RoleManager, "Manages teams, approves time, limited deletes"},
			{RoleEmployee, "Tracks own time"},
		}

		for _, def := range roleDefinitions {
			role, err := s.roles.FindByName(txCtx, def.Name)
			if err != nil {
				role = &model.Role{Name: def.Name, Description: def.Description, IsSystem: true}
				if err := s.roles.Create(txCtx, role); err != nil {
					return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
				}
			}

			links := make([]model.RolePermission, 0, len(perms))
			for i, c := range rbac.Catalogue {
				if level := defaultGrants(def.Name, c.Key); level != rbac.Forbidden {
					links = append(links, model.RolePermission{RoleID: role.ID, PermissionID: perms[i].ID, Level: level})
				}
			}
			if err := s.roles.UpsertRolePermissions(txCtx, links); err != nil {
				return fmt.Errorf("failed to assign permissions to role '%s': %w", def.Name, err)
			}
			s.log.Debug("seeded role", "role", def.Name, "grants", len(links))
		}
		return nil
	})
}

// --- Helpers ---

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, rp := range r.Permissions {
		perms = append(perms, toPermissionResponse(rp.Permission, rp.Level))
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Key < perms[j].Key })

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission, level rbac.Level) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID.String(),
		Key:         p.Key,
		Description: p.Description,
		Level:       level,
	}
}
