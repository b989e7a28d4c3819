package api

import (
	"errors"
	"io"
	"net/http"

	"roombook/internal/service"

	"github.com/gin-gonic/gin"
)

var kindStatus = map[service.Kind]int{
	service.KindValidation:     http.StatusBadRequest,
	service.KindAuthentication: http.StatusUnauthorized,
	service.KindAuthorization:  http.StatusForbidden,
	service.KindNotFound:       http.StatusNotFound,
	service.KindConflict:       http.StatusConflict,
	service.KindInternal:       http.StatusInternalServerError,
}

func writeError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// writeServiceError maps a service failure onto its status code. Errors from
// outside the service layer are reported as 500 without detail.
func writeServiceError(c *gin.Context, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if svcErr.Kind == service.KindInternal {
		_ = c.Error(err)
	}
	statusCode, ok := kindStatus[svcErr.Kind]
	if !ok {
		statusCode = http.StatusInternalServerError
	}
	writeError(c, statusCode, svcErr.Message)
}

// bindJSON decodes the body into v. An empty body leaves v zero-valued so the
// service reports the missing fields.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
