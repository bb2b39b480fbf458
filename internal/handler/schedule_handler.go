package handler

import (
	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	base
	schedules service.ScheduleService
	guard     *middleware.Guard
}

func NewScheduleHandler(schedules service.ScheduleService, guard *middleware.Guard, log logger.Logger) *ScheduleHandler {
	if err := RegisterValidators(); err != nil {
		log.Error("schedule request validation is degraded", "error", err)
	}
	return &ScheduleHandler{base: base{log: log}, schedules: schedules, guard: guard}
}

func (h *ScheduleHandler) RegisterRoutes(router *gin.RouterGroup) {
	list := h.guard.Require(rbac.RequireLimited(rbac.SchedulesList))

	g := router.Group("/schedules", h.guard.Authenticated())
	{
		g.GET("", list, h.List)
		g.GET("/working-hours", list, h.WorkingHours)
		g.GET("/:id", list, h.Get)
		g.POST("", h.guard.Require(rbac.RequireLimited(rbac.SchedulesCreate)), h.Create)
		g.PUT("/:id", h.guard.Require(rbac.RequireLimited(rbac.SchedulesUpdate)), h.Update)
		g.DELETE("/:id", h.guard.Require(rbac.RequireLimited(rbac.SchedulesDelete)), h.Delete)
	}
}

// List returns schedules with their days
// @Summary      List schedules
// @Tags         schedules
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query     string  false  "Owner"
// @Success      200      {object}  response.Response{data=[]model.Schedule}
// @Router       /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	rows, err := h.schedules.List(c.Request.Context(), actor(c, rbac.SchedulesList), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, rows)
}

// WorkingHours resolves the default schedule's window for one date
// @Summary      Working hours for a date
// @Description  Returns null on a day off or when the user has no default schedule
// @Tags         schedules
// @Produce      json
// @Security     BearerAuth
// @Param        date     query     string  true   "Day (YYYY-MM-DD)"
// @Param        user_id  query     string  false  "User"
// @Success      200      {object}  response.Response{data=service.WorkingHours}
// @Router       /schedules/working-hours [get]
func (h *ScheduleHandler) WorkingHours(c *gin.Context) {
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	hours, err := h.schedules.WorkingHoursFor(c.Request.Context(), actor(c, rbac.SchedulesList), userID, c.Query("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, hours)
}

// Get returns one schedule
// @Summary      Get schedule
// @Tags         schedules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  response.Response{data=model.Schedule}
// @Failure      404  {object}  response.Response
// @Router       /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.schedules.Get(c.Request.Context(), actor(c, rbac.SchedulesList), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, s)
}

// Create stores a weekly schedule
// @Summary      Create schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateScheduleRequest  true  "Schedule"
// @Success      201      {object}  response.Response{data=model.Schedule}
// @Failure      400      {object}  response.Response
// @Router       /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.CreateScheduleRequest
	if !h.bind(c, &req) {
		return
	}
	s, err := h.schedules.Create(c.Request.Context(), actor(c, rbac.SchedulesCreate), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, s)
}

// Update edits a schedule; sending days replaces all of them
// @Summary      Update schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Schedule ID"
// @Param        payload  body      service.UpdateScheduleRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=model.Schedule}
// @Failure      400      {object}  response.Response
// @Router       /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateScheduleRequest
	if !h.bind(c, &req) {
		return
	}
	s, err := h.schedules.Update(c.Request.Context(), actor(c, rbac.SchedulesUpdate), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, s)
}

// Delete removes a schedule and its days
// @Summary      Delete schedule
// @Tags         schedules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  response.Response
// @Router       /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.schedules.Delete(c.Request.Context(), actor(c, rbac.SchedulesDelete), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"message": "Schedule deleted successfully"})
}
