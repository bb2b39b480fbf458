package handler

import (
	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/pkg/logger"
	"hrms/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type TimeEntryHandler struct {
	base
	entries service.TimeEntryService
	guard   *middleware.Guard
}

func NewTimeEntryHandler(entries service.TimeEntryService, guard *middleware.Guard, log logger.Logger) *TimeEntryHandler {
	return &TimeEntryHandler{base: base{log: log}, entries: entries, guard: guard}
}

func (h *TimeEntryHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/time-tracking/entries", h.guard.Authenticated())
	{
		g.GET("", h.guard.Require(rbac.RequireLimited(rbac.TimeList)), h.List)
		g.POST("", h.guard.Require(rbac.RequireLimited(rbac.TimeCreate)), h.Create)
		g.GET("/:id", h.guard.Require(rbac.RequireLimited(rbac.TimeList)), h.Get)
		g.PUT("/:id", h.guard.Require(rbac.RequireLimited(rbac.TimeUpdate)), h.Update)
		g.DELETE("/:id", h.guard.Require(rbac.RequireLimited(rbac.TimeDelete)), h.Delete)
		g.POST("/:id/submit", h.guard.Require(rbac.RequireLimited(rbac.TimeUpdate)), h.Submit)
		g.POST("/:id/approve", h.guard.Require(rbac.RequireLimited(rbac.TimeApprove)), h.Approve)
		g.POST("/:id/reject", h.guard.Require(rbac.RequireLimited(rbac.TimeApprove)), h.Reject)
	}
}

// List returns time entries ordered by date and start, newest first
// @Summary      List time entries
// @Description  Limited callers only see their own entries
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Param        user_id     query     string  false  "Owner"
// @Param        company_id  query     string  false  "Company"
// @Param        status      query     string  false  "DRAFT, SUBMITTED, APPROVED or REJECTED"
// @Param        from        query     string  false  "First day (YYYY-MM-DD)"
// @Param        to          query     string  false  "Last day (YYYY-MM-DD)"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Items per page (default 20)"
// @Success      200         {object}  response.Response{data=pagination.Page}
// @Router       /time-tracking/entries [get]
func (h *TimeEntryHandler) List(c *gin.Context) {
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	companyID, ok := h.queryID(c, "company_id")
	if !ok {
		return
	}
	p := pagination.Parse(c)

	rows, total, err := h.entries.List(c.Request.Context(), actor(c, rbac.TimeList), service.TimeEntryListFilter{
		UserID:    userID,
		CompanyID: companyID,
		Status:    c.Query("status"),
		From:      optionalQuery(c, "from"),
		To:        optionalQuery(c, "to"),
		Page:      p.Page,
		Limit:     p.Limit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, p.Wrap(rows, total))
}

// Create records a manual time entry
// @Summary      Create time entry
// @Description  Either start_at/end_at or duration_minutes is required; intervals may not overlap the owner's other entries
// @Tags         time-tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTimeEntryRequest  true  "Entry"
// @Success      201      {object}  response.Response{data=model.TimeEntry}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /time-tracking/entries [post]
func (h *TimeEntryHandler) Create(c *gin.Context) {
	var req service.CreateTimeEntryRequest
	if !h.bind(c, &req) {
		return
	}
	e, err := h.entries.Create(c.Request.Context(), actor(c, rbac.TimeCreate), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, e)
}

// Get returns one time entry
// @Summary      Get time entry
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.TimeEntry}
// @Failure      404  {object}  response.Response
// @Router       /time-tracking/entries/{id} [get]
func (h *TimeEntryHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.entries.Get(c.Request.Context(), actor(c, rbac.TimeList), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, e)
}

// Update edits a draft or rejected entry
// @Summary      Update time entry
// @Tags         time-tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Entry ID"
// @Param        payload  body      service.UpdateTimeEntryRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=model.TimeEntry}
// @Failure      409      {object}  response.Response
// @Router       /time-tracking/entries/{id} [put]
func (h *TimeEntryHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateTimeEntryRequest
	if !h.bind(c, &req) {
		return
	}
	e, err := h.entries.Update(c.Request.Context(), actor(c, rbac.TimeUpdate), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, e)
}

// Delete removes an entry that has not been approved
// @Summary      Delete time entry
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /time-tracking/entries/{id} [delete]
func (h *TimeEntryHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.entries.Delete(c.Request.Context(), actor(c, rbac.TimeDelete), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"message": "Time entry deleted successfully"})
}

// Submit moves a draft or rejected entry to SUBMITTED
// @Summary      Submit time entry
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.TimeEntry}
// @Failure      409  {object}  response.Response
// @Router       /time-tracking/entries/{id}/submit [post]
func (h *TimeEntryHandler) Submit(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.entries.Submit(c.Request.Context(), actor(c, rbac.TimeUpdate), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, e)
}

// Approve accepts a submitted entry
// @Summary      Approve time entry
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.TimeEntry}
// @Failure      409  {object}  response.Response
// @Router       /time-tracking/entries/{id}/approve [post]
func (h *TimeEntryHandler) Approve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.entries.Approve(c.Request.Context(), actor(c, rbac.TimeApprove), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, e)
}

// Reject sends a submitted entry back to its owner
// @Summary      Reject time entry
// @Tags         time-tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true   "Entry ID"
// @Param        payload  body      service.ReviewRequest  false  "Reason"
// @Success      200      {object}  response.Response{data=model.TimeEntry}
// @Failure      409      {object}  response.Response
// @Router       /time-tracking/entries/{id}/reject [post]
func (h *TimeEntryHandler) Reject(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.ReviewRequest
	if !h.bindOptional(c, &req) {
		return
	}
	e, err := h.entries.Reject(c.Request.Context(), actor(c, rbac.TimeApprove), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, e)
}
