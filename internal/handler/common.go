package handler

import (
	"net/http"

	"hrms/internal/apperror"
	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/pkg/logger"
	"hrms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// base carries what every handler needs to answer a request.
type base struct {
	log logger.Logger
}

func (b base) fail(c *gin.Context, err error) {
	middleware.WriteError(c, b.log, err)
}

func (b base) ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

func (b base) created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, data))
}

// bind decodes the JSON body into req, answering 400 on failure.
func (b base) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		b.fail(c, apperror.Validation("Invalid request payload: %s", err.Error()))
		return false
	}
	return true
}

// bindOptional is bind for endpoints whose body may be empty.
func (b base) bindOptional(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return b.bind(c, req)
}

// pathID parses the :id path parameter.
func (b base) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		b.fail(c, apperror.Validation("%s must be a UUID", name).With("field", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional UUID query parameter.
func (b base) queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		b.fail(c, apperror.Validation("%s must be a UUID", name).With("field", name))
		return nil, false
	}
	return &id, true
}

// optionalQuery returns nil when the parameter is absent.
func optionalQuery(c *gin.Context, name string) *string {
	if v, ok := c.GetQuery(name); ok && v != "" {
		return &v
	}
	return nil
}

// actor builds the service caller from the guard's decision for key.
func actor(c *gin.Context, key rbac.Key) service.Actor {
	return service.NewActor(middleware.Decision(c), key)
}

// callerID is the authenticated user. Routes using it sit behind
// Authenticated.
func callerID(c *gin.Context) uuid.UUID {
	id, _ := middleware.UserID(c)
	return id
}
