// Package handlers provides the HTTP handlers of the public API.
//
// Every error leaves through fail(), which writes an ErrorResponse with a
// stable code and logs 5xx with the request-scoped logger. Success bodies
// go through ok().
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/speisly/mensa-api/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"meal not found"`
}

// MessageResponse is a success body carrying a short user-facing message.
type MessageResponse struct {
	Message string `json:"message" example:"Bewertung gespeichert"`
}

// fail aborts the request with a structured error. Server errors are logged
// with the request-scoped logger; the internal cause never reaches the
// client.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// failInternal logs err and answers 500 with a generic message.
func failInternal(c *gin.Context, err error) {
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}

// Fail is the exported variant of fail() for the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
