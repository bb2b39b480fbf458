package handler

import (
	"hrms/internal/middleware"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/pkg/logger"
	"hrms/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type RateHandler struct {
	base
	rates service.RateService
	guard *middleware.Guard
}

func NewRateHandler(rates service.RateService, guard *middleware.Guard, log logger.Logger) *RateHandler {
	return &RateHandler{base: base{log: log}, rates: rates, guard: guard}
}

func (h *RateHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/rates", h.guard.Authenticated())
	{
		g.GET("", h.guard.Require(rbac.RequireLimited(rbac.RatesList)), h.List)
		g.GET("/current", h.guard.Require(rbac.RequireLimited(rbac.RatesList)), h.Current)
		g.GET("/:id", h.guard.Require(rbac.RequireLimited(rbac.RatesList)), h.Get)
		g.POST("", h.guard.Require(rbac.Require(rbac.RatesCreate)), h.Create)
		g.PUT("/:id", h.guard.Require(rbac.Require(rbac.RatesUpdate)), h.Update)
		g.DELETE("/:id", h.guard.Require(rbac.Require(rbac.RatesDelete)), h.Delete)
	}
}

// List returns pay rates, most recent period first
// @Summary      List rates
// @Tags         rates
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query     string  false  "Owner"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Items per page (default 20)"
// @Success      200      {object}  response.Response{data=pagination.Page}
// @Router       /rates [get]
func (h *RateHandler) List(c *gin.Context) {
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	p := pagination.Parse(c)
	rows, total, err := h.rates.List(c.Request.Context(), actor(c, rbac.RatesList), userID, p.Page, p.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, p.Wrap(rows, total))
}

// Current returns the rate in force on a day
// @Summary      Current rate
// @Tags         rates
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query     string  false  "User (defaults to caller)"
// @Param        type     query     string  false  "HOURLY, DAILY or MONTHLY (default HOURLY)"
// @Param        date     query     string  true   "Day (YYYY-MM-DD)"
// @Success      200      {object}  response.Response{data=model.Rate}
// @Failure      400      {object}  response.Response
// @Router       /rates/current [get]
func (h *RateHandler) Current(c *gin.Context) {
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	r, err := h.rates.Current(c.Request.Context(), actor(c, rbac.RatesList), userID, c.DefaultQuery("type", model.RateTypeHourly), c.Query("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, r)
}

// Get returns one rate
// @Summary      Get rate
// @Tags         rates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Rate ID"
// @Success      200  {object}  response.Response{data=model.Rate}
// @Failure      404  {object}  response.Response
// @Router       /rates/{id} [get]
func (h *RateHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.rates.Get(c.Request.Context(), actor(c, rbac.RatesList), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, r)
}

// Create adds a rate period
// @Summary      Create rate
// @Description  Periods of the same type may not overlap for a user
// @Tags         rates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRateRequest  true  "Rate"
// @Success      201      {object}  response.Response{data=model.Rate}
// @Failure      409      {object}  response.Response
// @Router       /rates [post]
func (h *RateHandler) Create(c *gin.Context) {
	var req service.CreateRateRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.rates.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, r)
}

// Update edits a rate period
// @Summary      Update rate
// @Tags         rates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Rate ID"
// @Param        payload  body      service.UpdateRateRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=model.Rate}
// @Failure      409      {object}  response.Response
// @Router       /rates/{id} [put]
func (h *RateHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRateRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.rates.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, r)
}

// Delete removes a rate period
// @Summary      Delete rate
// @Tags         rates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Rate ID"
// @Success      200  {object}  response.Response
// @Router       /rates/{id} [delete]
func (h *RateHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.rates.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"message": "Rate deleted successfully"})
}
