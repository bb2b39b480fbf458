package middleware

import (
	"errors"
	"net/http"

	"hrms/internal/apperror"
	"hrms/pkg/logger"
	"hrms/pkg/response"

	"github.com/gin-gonic/gin"
)

// ErrorResponse maps err onto a status code and response body. Unknown
// errors become a 500 without leaking their text.
func ErrorResponse(err error) (int, response.Response) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		status := apperror.HTTPStatus(err)
		return status, response.Fail(status, string(appErr.Kind), appErr.Error(), appErr.Fields)
	}
	return http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error")
}

// WriteError writes err as a JSON error response.
func WriteError(c *gin.Context, log logger.Logger, err error) {
	status, body := ErrorResponse(err)
	if status == http.StatusInternalServerError && log != nil {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "request_id", c.GetString(ctxRequestID), "error", err)
	}
	c.JSON(status, body)
}

// AbortWithError writes err and stops the handler chain.
func AbortWithError(c *gin.Context, log logger.Logger, err error) {
	WriteError(c, log, err)
	c.Abort()
}
