package httpapi

import (
	"context"
	"errors"
	"net/http"

	"campus_notifier/internal/app"

	"github.com/gin-gonic/gin"
)

// Callable error statuses as seen by clients.
const (
	statusInvalidArgument  = "INVALID_ARGUMENT"
	statusNotFound         = "NOT_FOUND"
	statusInternal         = "INTERNAL"
	statusDeadlineExceeded = "DEADLINE_EXCEEDED"
	statusUnavailable      = "UNAVAILABLE"
)

type callableError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleCallable decodes {"data": {...}} into T, runs call under the request
// timeout and writes {"result": ...} or {"error": ...}.
func handleCallable[T any](s *Server, call func(context.Context, T) (*app.CallableResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var envelope struct {
			Data T `json:"data"`
		}
		if err := c.ShouldBindJSON(&envelope); err != nil {
			writeCallableError(c, http.StatusBadRequest, statusInvalidArgument, "Request body must be a JSON object with a data field")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
		defer cancel()

		result, err := call(ctx, envelope.Data)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				writeCallableError(c, http.StatusGatewayTimeout, statusDeadlineExceeded, "Deadline exceeded")
				return
			}
			code, status := callableStatus(err)
			writeCallableError(c, code, status, callableMessage(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// limitCallables queues callables beyond the configured concurrency until
// a slot frees up or the request times out.
func (s *Server) limitCallables() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
		defer cancel()
		if err := s.limiter.Acquire(ctx, 1); err != nil {
			s.logger.WithField("path", c.FullPath()).Warn("Callable rejected, concurrency limit reached")
			writeCallableError(c, http.StatusServiceUnavailable, statusUnavailable, "Too many concurrent requests")
			c.Abort()
			return
		}
		defer s.limiter.Release(1)
		c.Next()
	}
}

func callableStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrInvalidArgument):
		return http.StatusBadRequest, statusInvalidArgument
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound, statusNotFound
	default:
		return http.StatusInternalServerError, statusInternal
	}
}

func callableMessage(err error) string {
	var ce *app.CallableError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return "Internal server error"
}

func writeCallableError(c *gin.Context, code int, status, message string) {
	c.JSON(code, gin.H{"error": callableError{Status: status, Message: message}})
}
