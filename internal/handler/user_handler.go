package handler

import (
	"errors"
	"net/http"

	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/pkg/logger"
	"hrms/pkg/pagination"
	"hrms/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	base
	userService service.UserService
	roleService service.RoleService
	guard       *middleware.Guard
	limiter     *middleware.LoginLimiter
	cookies     middleware.CookieOptions
}

// NewUserHandler sets up the routing dependencies for auth and user endpoints
func NewUserHandler(
	userService service.UserService,
	roleService service.RoleService,
	guard *middleware.Guard,
	limiter *middleware.LoginLimiter,
	cookies middleware.CookieOptions,
	log logger.Logger,
) *UserHandler {
	return &UserHandler{
		base:        base{log: log},
		userService: userService,
		roleService: roleService,
		guard:       guard,
		limiter:     limiter,
		cookies:     cookies,
	}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", h.limiter.Middleware(), h.Login)
		authGroup.POST("/refresh", h.limiter.Middleware(), h.RefreshToken)
		authGroup.POST("/logout", h.Logout)
	}

	router.GET("/me", h.guard.Authenticated(), h.GetMe)

	users := router.Group("/users", h.guard.Authenticated())
	{
		users.GET("", h.guard.Require(rbac.RequireLimited(rbac.UsersList)), h.ListUsers)
		users.POST("", h.guard.Require(rbac.Require(rbac.UsersCreate)), h.CreateUser)
		users.GET("/:id", h.guard.Require(rbac.RequireLimited(rbac.UsersView)), h.GetUserByID)
		users.GET("/:id/roles", h.guard.Require(rbac.Require(rbac.RolesList)), h.GetUserRoles)
		users.PUT("/:id/roles", h.guard.Require(rbac.Require(rbac.RolesManage)), h.AssignRoles)
		users.GET("/:id/permissions", h.guard.Require(rbac.Require(rbac.RolesList)), h.GetUserPermissions)
	}
}

// Login handles POST /auth/login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by email and password, returning access and refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginUserRequest   true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if !h.bind(c, &req) {
		return
	}

	tokenRes, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		h.authFailure(c, err)
		return
	}

	h.cookies.SetTokenCookies(c, tokenRes.Token, tokenRes.RefreshToken)
	h.ok(c, tokenRes)
}

// RefreshToken handles POST /auth/refresh to rotate access and refresh tokens
// @Summary      Refresh token
// @Description  Consumes a refresh token (cookie or body) and issues a new pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest   false  "Refresh Token"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/refresh [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req service.RefreshTokenRequest
	if token, err := c.Cookie(middleware.RefreshCookie); err == nil && token != "" {
		req.RefreshToken = token
	} else if !h.bind(c, &req) {
		return
	}

	tokenRes, err := h.userService.RefreshToken(c.Request.Context(), req)
	if err != nil {
		h.authFailure(c, err)
		return
	}

	h.cookies.SetTokenCookies(c, tokenRes.Token, tokenRes.RefreshToken)
	h.ok(c, tokenRes)
}

func (h *UserHandler) authFailure(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.cookies.ClearTokenCookies(c)
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}
	h.fail(c, err)
}

// Logout handles POST /auth/logout to revoke the refresh token and clear cookies
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshCookie)
	if err := h.userService.Logout(c.Request.Context(), token); err != nil {
		h.fail(c, err)
		return
	}
	h.cookies.ClearTokenCookies(c)
	h.ok(c, "Logged out")
}

// GetMe handles GET /me to return the caller with their effective permissions
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=service.MeResponse}
// @Failure      401      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	me, err := h.userService.Me(c.Request.Context(), callerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, me)
}

// CreateUser handles POST /users
// @Summary      Create a new user
// @Description  Creates a user with a bcrypt-hashed password and optional roles
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, user)
}

// ListUsers handles GET /users
// @Summary      List users
// @Description  Limited callers see members of their companies
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Page}
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), actor(c, rbac.UsersList), p.Page, p.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, p.Wrap(users, total))
}

// GetUserByID handles GET /users/:id
// @Summary      Get user by ID
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), actor(c, rbac.UsersView), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, user)
}

// GetUserRoles handles GET /users/:id/roles
// @Summary      List a user's roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /users/{id}/roles [get]
func (h *UserHandler) GetUserRoles(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	roles, err := h.roleService.GetUserRoles(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, roles)
}

// AssignRoles handles PUT /users/:id/roles, replacing every assignment
// @Summary      Replace a user's roles
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "User ID"
// @Param        payload  body      service.AssignRolesRequest  true  "Role IDs"
// @Success      200      {object}  response.Response{data=[]service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Router       /users/{id}/roles [put]
func (h *UserHandler) AssignRoles(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.AssignRolesRequest
	if !h.bind(c, &req) {
		return
	}
	roles, err := h.roleService.AssignRolesToUser(c.Request.Context(), callerID(c), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, roles)
}

// GetUserPermissions handles GET /users/:id/permissions
// @Summary      Effective permissions of a user
// @Description  Maximum level per key across all of the user's roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=map[string]string}
// @Router       /users/{id}/permissions [get]
func (h *UserHandler) GetUserPermissions(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	perms, err := h.roleService.GetUserPermissions(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, perms)
}
