package handler

import (
	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/pkg/logger"
	"hrms/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct {
	base
	companies service.CompanyService
	guard     *middleware.Guard
}

func NewCompanyHandler(companies service.CompanyService, guard *middleware.Guard, log logger.Logger) *CompanyHandler {
	return &CompanyHandler{base: base{log: log}, companies: companies, guard: guard}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/companies", h.guard.Authenticated())
	{
		g.GET("", h.guard.Require(rbac.RequireLimited(rbac.CompaniesList)), h.List)
		g.POST("", h.guard.Require(rbac.Require(rbac.CompaniesCreate)), h.Create)
		g.GET("/:id", h.guard.Require(rbac.RequireLimited(rbac.CompaniesView)), h.Get)
		g.POST("/:id/members", h.guard.Require(rbac.Require(rbac.CompaniesUpdate)), h.AddMember)
		g.DELETE("/:id/members/:userId", h.guard.Require(rbac.Require(rbac.CompaniesUpdate)), h.RemoveMember)
	}
}

// List returns companies; limited callers see their own memberships
// @Summary      List companies
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Page}
// @Router       /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	rows, total, err := h.companies.List(c.Request.Context(), actor(c, rbac.CompaniesList), p.Page, p.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, p.Wrap(rows, total))
}

// Create adds a company
// @Summary      Create company
// @Tags         companies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCompanyRequest  true  "Company"
// @Success      201      {object}  response.Response{data=model.Company}
// @Router       /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	var req service.CreateCompanyRequest
	if !h.bind(c, &req) {
		return
	}
	co, err := h.companies.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, co)
}

// Get returns one company
// @Summary      Get company
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Company ID"
// @Success      200  {object}  response.Response{data=model.Company}
// @Failure      404  {object}  response.Response
// @Router       /companies/{id} [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	co, err := h.companies.Get(c.Request.Context(), actor(c, rbac.CompaniesView), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, co)
}

// AddMember links a user to a company
// @Summary      Add company member
// @Tags         companies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Company ID"
// @Param        payload  body      service.AddMemberRequest  true  "Member"
// @Success      201      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /companies/{id}/members [post]
func (h *CompanyHandler) AddMember(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.AddMemberRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.companies.AddMember(c.Request.Context(), id, req); err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, gin.H{"company_id": id, "user_id": req.UserID})
}

// RemoveMember unlinks a user from a company
// @Summary      Remove company member
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Company ID"
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  response.Response
// @Router       /companies/{id}/members/{userId} [delete]
func (h *CompanyHandler) RemoveMember(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}
	if err := h.companies.RemoveMember(c.Request.Context(), id, userID); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"message": "Member removed"})
}
