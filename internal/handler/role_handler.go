package handler

import (
	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/pkg/logger"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	base
	roleService service.RoleService
	guard       *middleware.Guard
}

func NewRoleHandler(roleService service.RoleService, guard *middleware.Guard, log logger.Logger) *RoleHandler {
	return &RoleHandler{base: base{log: log}, roleService: roleService, guard: guard}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := h.guard.Require(rbac.Require(rbac.RolesList))
	manage := h.guard.Require(rbac.Require(rbac.RolesManage))

	roles := router.Group("/roles", h.guard.Authenticated())
	{
		roles.GET("", read, h.ListRoles)
		roles.GET("/:id", read, h.GetRole)
		roles.POST("", manage, h.CreateRole)
		roles.PUT("/:id", manage, h.UpdateRole)
		roles.DELETE("/:id", manage, h.DeleteRole)
		roles.GET("/:id/permissions", read, h.GetRolePermissions)
		roles.PUT("/:id/permissions", manage, h.UpdateRolePermissions)
	}

	perms := router.Group("/permissions", h.guard.Authenticated())
	{
		perms.GET("", read, h.ListPermissions)
		perms.POST("", manage, h.CreatePermission)
	}
}

// ListRoles returns all roles with their permissions
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, roles)
}

// GetRole returns a single role by ID
// @Summary      Get role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Failure      404  {object}  response.Response
// @Router       /roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, role)
}

// CreateRole creates a new custom role
// @Summary      Create role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Role"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      409      {object}  response.Response
// @Router       /roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if !h.bind(c, &req) {
		return
	}
	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, role)
}

// UpdateRole updates a role's name and description
// @Summary      Update role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Role"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      409      {object}  response.Response
// @Router       /roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRoleRequest
	if !h.bind(c, &req) {
		return
	}
	role, err := h.roleService.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, role)
}

// DeleteRole deletes a non-system role that nobody holds
// @Summary      Delete role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.roleService.DeleteRole(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"message": "Role deleted successfully"})
}

// ListPermissions returns all available permissions
// @Summary      List permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, perms)
}

// CreatePermission registers a new resource:action key
// @Summary      Create permission
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePermissionRequest  true  "Permission"
// @Success      201      {object}  response.Response{data=service.PermissionResponse}
// @Failure      409      {object}  response.Response
// @Router       /permissions [post]
func (h *RoleHandler) CreatePermission(c *gin.Context) {
	var req service.CreatePermissionRequest
	if !h.bind(c, &req) {
		return
	}
	perm, err := h.roleService.CreatePermission(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, perm)
}

// GetRolePermissions lists every permission with the role's level
// @Summary      Role permission levels
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /roles/{id}/permissions [get]
func (h *RoleHandler) GetRolePermissions(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	perms, err := h.roleService.GetRolePermissions(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, perms)
}

// UpdateRolePermissions sets levels for many keys in one transaction
// @Summary      Update role permission levels
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Role ID"
// @Param        payload  body      service.UpdateRolePermissionsRequest  true  "Levels"
// @Success      200      {object}  response.Response{data=[]service.PermissionResponse}
// @Failure      404      {object}  response.Response
// @Router       /roles/{id}/permissions [put]
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRolePermissionsRequest
	if !h.bind(c, &req) {
		return
	}
	perms, err := h.roleService.UpdateRolePermissions(c.Request.Context(), callerID(c), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, perms)
}
