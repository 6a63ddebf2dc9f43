// Package api is scope-service's HTTP/WebSocket control-and-streaming
// surface: connect/disconnect, parameter setters, USB discovery and a
// live event stream.
//
// Grounded literally on device-service/internal/utils/response.go's
// envelope shape, trimmed of the request-id-from-auth-context plumbing
// this single-tenant driver has no analogue for.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint in this package replies
// with.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError is the error portion of a failed Response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success writes a 2xx envelope.
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: requestIDOf(c),
	})
}

// Fail writes an error envelope. err may be nil.
func Fail(c *gin.Context, statusCode int, message string, err error) {
	apiErr := &APIError{Code: codeFor(statusCode), Message: message}
	if err != nil {
		apiErr.Details = err.Error()
	}
	c.JSON(statusCode, Response{
		Success:   false,
		Message:   message,
		Error:     apiErr,
		Timestamp: time.Now(),
		RequestID: requestIDOf(c),
	})
}

func requestIDOf(c *gin.Context) string {
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

func codeFor(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case http.StatusInternalServerError:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}
