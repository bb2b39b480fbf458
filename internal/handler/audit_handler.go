package handler

import (
	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/internal/repository"
	"hrms/internal/service"
	"hrms/pkg/logger"
	"hrms/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	base
	auditService service.AuditService
	guard        *middleware.Guard
}

func NewAuditHandler(auditService service.AuditService, guard *middleware.Guard, log logger.Logger) *AuditHandler {
	return &AuditHandler{base: base{log: log}, auditService: auditService, guard: guard}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs", h.guard.Authenticated(), h.guard.Require(rbac.Require(rbac.AuditView)))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns audit rows newest first with the acting user resolved
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action     query     string  false  "Action filter"
// @Param        entity_id  query     string  false  "Entity filter"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=pagination.Page}
// @Router       /audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.AuditFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
	}
	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, p.Wrap(logs, total))
}
