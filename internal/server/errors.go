package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
)

type errorResponse struct {
	Error ierr.Notification `json:"error"`
}

var (
	ErrInvalidRequest = ierr.NewError("invalid_request").
				WithHint("The request body could not be read.").
				Mark(ierr.ErrValidation)
	ErrRouteNotFound = ierr.NewError("route_not_found").
				WithHint("Not found.").
				Mark(ierr.ErrNotFound)
)

// ErrorHandlingMiddleware renders the last handler error as
// {"error": {"type", "message", "retryable"}} unless a response was
// already written.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, ierr.Notification) {
	if err == nil {
		return http.StatusInternalServerError, ierr.Notify(errors.New("nil error"))
	}
	n := ierr.Notify(err)
	return ierr.HTTPStatus(n.Kind), n
}

// classifyErrorForLog feeds error_kind on the request log line.
func classifyErrorForLog(err error) string {
	if err == nil {
		return ""
	}
	return ierr.Notify(err).Kind
}
