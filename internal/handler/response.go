package handler

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// mapErrorToHTTPStatus maps store errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Store unreachable or too slow
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
