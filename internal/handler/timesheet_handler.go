package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"hrms/internal/apperror"
	"hrms/internal/export"
	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/pkg/logger"
	"hrms/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type TimesheetHandler struct {
	base
	sheets service.TimesheetService
	guard  *middleware.Guard
}

func NewTimesheetHandler(sheets service.TimesheetService, guard *middleware.Guard, log logger.Logger) *TimesheetHandler {
	return &TimesheetHandler{base: base{log: log}, sheets: sheets, guard: guard}
}

func (h *TimesheetHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/time-tracking", h.guard.Authenticated())
	{
		g.GET("/timesheets", h.guard.Require(rbac.RequireLimited(rbac.TimeList)), h.List)
		g.POST("/timesheets", h.guard.Require(rbac.RequireLimited(rbac.TimeCreate)), h.Create)
		g.GET("/timesheets/:id", h.guard.Require(rbac.RequireLimited(rbac.TimeList)), h.Get)
		g.POST("/timesheets/:id/submit", h.guard.Require(rbac.RequireLimited(rbac.TimeUpdate)), h.Submit)
		g.POST("/timesheets/:id/approve", h.guard.Require(rbac.RequireLimited(rbac.TimeApprove)), h.Approve)
		g.POST("/timesheets/:id/reject", h.guard.Require(rbac.RequireLimited(rbac.TimeApprove)), h.Reject)

		g.GET("/reports/time", h.guard.Require(rbac.RequireLimited(rbac.TimeReport)), h.Report)
		g.GET("/reports/time/export", h.guard.Require(rbac.RequireLimited(rbac.TimeReport)), h.Export)
	}
}

// List returns timesheets, newest week first
// @Summary      List timesheets
// @Tags         timesheets
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query     string  false  "Owner"
// @Param        status   query     string  false  "Status"
// @Param        from     query     string  false  "Earliest week start (YYYY-MM-DD)"
// @Param        to       query     string  false  "Latest week start (YYYY-MM-DD)"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Items per page (default 20)"
// @Success      200      {object}  response.Response{data=pagination.Page}
// @Router       /time-tracking/timesheets [get]
func (h *TimesheetHandler) List(c *gin.Context) {
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	p := pagination.Parse(c)
	rows, total, err := h.sheets.List(c.Request.Context(), actor(c, rbac.TimeList), service.TimesheetListFilter{
		UserID: userID,
		Status: c.Query("status"),
		From:   optionalQuery(c, "from"),
		To:     optionalQuery(c, "to"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, p.Wrap(rows, total))
}

// Create snapshots the week containing week_start_date
// @Summary      Create timesheet
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTimesheetRequest  true  "Week"
// @Success      201      {object}  response.Response{data=model.Timesheet}
// @Failure      409      {object}  response.Response
// @Router       /time-tracking/timesheets [post]
func (h *TimesheetHandler) Create(c *gin.Context) {
	var req service.CreateTimesheetRequest
	if !h.bind(c, &req) {
		return
	}
	ts, err := h.sheets.Create(c.Request.Context(), actor(c, rbac.TimeCreate), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, ts)
}

// Get returns a timesheet with its live entries and summary
// @Summary      Get timesheet
// @Tags         timesheets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Timesheet ID"
// @Success      200  {object}  response.Response{data=service.TimesheetDetail}
// @Failure      404  {object}  response.Response
// @Router       /time-tracking/timesheets/{id} [get]
func (h *TimesheetHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ts, err := h.sheets.Get(c.Request.Context(), actor(c, rbac.TimeList), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, ts)
}

// Submit sends a draft timesheet for review
// @Summary      Submit timesheet
// @Tags         timesheets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Timesheet ID"
// @Success      200  {object}  response.Response{data=model.Timesheet}
// @Failure      409  {object}  response.Response
// @Router       /time-tracking/timesheets/{id}/submit [post]
func (h *TimesheetHandler) Submit(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ts, err := h.sheets.Submit(c.Request.Context(), actor(c, rbac.TimeUpdate), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, ts)
}

// Approve accepts a submitted timesheet
// @Summary      Approve timesheet
// @Tags         timesheets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Timesheet ID"
// @Success      200  {object}  response.Response{data=model.Timesheet}
// @Failure      409  {object}  response.Response
// @Router       /time-tracking/timesheets/{id}/approve [post]
func (h *TimesheetHandler) Approve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ts, err := h.sheets.Approve(c.Request.Context(), actor(c, rbac.TimeApprove), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, ts)
}

// Reject marks a submitted timesheet REJECTED
// @Summary      Reject timesheet
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true   "Timesheet ID"
// @Param        payload  body      service.ReviewRequest  false  "Reason"
// @Success      200      {object}  response.Response{data=model.Timesheet}
// @Failure      409      {object}  response.Response
// @Router       /time-tracking/timesheets/{id}/reject [post]
func (h *TimesheetHandler) Reject(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.ReviewRequest
	if !h.bindOptional(c, &req) {
		return
	}
	ts, err := h.sheets.Reject(c.Request.Context(), actor(c, rbac.TimeApprove), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, ts)
}

func (h *TimesheetHandler) report(c *gin.Context) (*service.TimeReport, bool) {
	var filter service.TimeReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.fail(c, apperror.Validation("from and to are required (YYYY-MM-DD): %s", err.Error()))
		return nil, false
	}
	var ok bool
	if filter.UserID, ok = h.queryID(c, "user_id"); !ok {
		return nil, false
	}
	if filter.CompanyID, ok = h.queryID(c, "company_id"); !ok {
		return nil, false
	}
	rep, err := h.sheets.GenerateTimeReport(c.Request.Context(), actor(c, rbac.TimeReport), filter)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return rep, true
}

// Report aggregates minutes per user over a date range
// @Summary      Time report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from        query     string  true   "First day (YYYY-MM-DD)"
// @Param        to          query     string  true   "Last day (YYYY-MM-DD)"
// @Param        user_id     query     string  false  "Single user"
// @Param        company_id  query     string  false  "Single company"
// @Param        status      query     string  false  "Entry status"
// @Success      200         {object}  response.Response{data=service.TimeReport}
// @Failure      400         {object}  response.Response
// @Router       /time-tracking/reports/time [get]
func (h *TimesheetHandler) Report(c *gin.Context) {
	rep, ok := h.report(c)
	if !ok {
		return
	}
	h.ok(c, rep)
}

// Export downloads the time report as CSV or XLSX
// @Summary      Export time report
// @Tags         reports
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        from    query     string  true   "First day (YYYY-MM-DD)"
// @Param        to      query     string  true   "Last day (YYYY-MM-DD)"
// @Param        format  query     string  false  "csv (default) or xlsx"
// @Success      200     {file}    file
// @Failure      400     {object}  response.Response
// @Router       /time-tracking/reports/time/export [get]
func (h *TimesheetHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", export.FormatCSV)
	if format != export.FormatCSV && format != export.FormatXLSX {
		h.fail(c, apperror.Validation("format must be csv or xlsx").With("field", "format"))
		return
	}
	rep, ok := h.report(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, rep, format); err != nil {
		h.fail(c, fmt.Errorf("render %s report: %w", format, err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(rep, format)))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}
