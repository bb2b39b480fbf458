package handler

import (
	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/pkg/logger"

	"github.com/gin-gonic/gin"
)

type TimerHandler struct {
	base
	timer service.TimerService
	guard *middleware.Guard
}

func NewTimerHandler(timer service.TimerService, guard *middleware.Guard, log logger.Logger) *TimerHandler {
	return &TimerHandler{base: base{log: log}, timer: timer, guard: guard}
}

func (h *TimerHandler) RegisterRoutes(router *gin.RouterGroup) {
	create := h.guard.Require(rbac.RequireLimited(rbac.TimeCreate))

	g := router.Group("/time-tracking/timer", h.guard.Authenticated())
	{
		g.POST("/start", create, h.Start)
		g.POST("/stop", create, h.Stop)
		g.GET("/status", h.guard.Require(rbac.RequireLimited(rbac.TimeList)), h.Status)
		g.POST("/cancel", h.guard.Require(rbac.RequireLimited(rbac.TimeDelete)), h.Cancel)
		g.POST("/pause", create, h.Pause)
		g.POST("/resume", create, h.Resume)
	}
}

// Start opens a running timer entry
// @Summary      Start timer
// @Tags         timer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.StartTimerRequest  false  "Timer"
// @Success      201      {object}  response.Response{data=model.TimeEntry}
// @Failure      409      {object}  response.Response
// @Router       /time-tracking/timer/start [post]
func (h *TimerHandler) Start(c *gin.Context) {
	var req service.StartTimerRequest
	if !h.bindOptional(c, &req) {
		return
	}
	e, err := h.timer.Start(c.Request.Context(), actor(c, rbac.TimeCreate), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, e)
}

// Stop closes the running timer and computes its duration
// @Summary      Stop timer
// @Tags         timer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.StopTimerRequest  false  "Break and notes"
// @Success      200      {object}  response.Response{data=model.TimeEntry}
// @Failure      404      {object}  response.Response
// @Router       /time-tracking/timer/stop [post]
func (h *TimerHandler) Stop(c *gin.Context) {
	var req service.StopTimerRequest
	if !h.bindOptional(c, &req) {
		return
	}
	e, err := h.timer.Stop(c.Request.Context(), actor(c, rbac.TimeCreate), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, e)
}

// Status reports the running timer, or null when none is running
// @Summary      Timer status
// @Tags         timer
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query     string  false  "Owner"
// @Success      200      {object}  response.Response{data=service.TimerStatus}
// @Router       /time-tracking/timer/status [get]
func (h *TimerHandler) Status(c *gin.Context) {
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	st, err := h.timer.Status(c.Request.Context(), actor(c, rbac.TimeList), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, st)
}

// Cancel discards the running timer
// @Summary      Cancel timer
// @Tags         timer
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query     string  false  "Owner"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /time-tracking/timer/cancel [post]
func (h *TimerHandler) Cancel(c *gin.Context) {
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	if err := h.timer.Cancel(c.Request.Context(), actor(c, rbac.TimeDelete), userID); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"message": "Timer cancelled"})
}

// Pause is not supported yet
// @Summary      Pause timer
// @Tags         timer
// @Produce      json
// @Security     BearerAuth
// @Failure      501  {object}  response.Response
// @Router       /time-tracking/timer/pause [post]
func (h *TimerHandler) Pause(c *gin.Context) {
	if err := h.timer.Pause(c.Request.Context(), actor(c, rbac.TimeCreate)); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, nil)
}

// Resume is not supported yet
// @Summary      Resume timer
// @Tags         timer
// @Produce      json
// @Security     BearerAuth
// @Failure      501  {object}  response.Response
// @Router       /time-tracking/timer/resume [post]
func (h *TimerHandler) Resume(c *gin.Context) {
	if err := h.timer.Resume(c.Request.Context(), actor(c, rbac.TimeCreate)); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, nil)
}
