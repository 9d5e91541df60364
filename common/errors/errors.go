package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BadRequest reports malformed input.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

// NotFound reports a missing entity.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

// Forbidden reports an authenticated but disallowed action.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, nil)
}

// Conflict reports a duplicate or illegal-state operation.
func Conflict(message string) *Error {
	return New(http.StatusConflict, message, nil)
}

// ServerError reports an upstream dependency failure.
func ServerError(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// Common error types
var (
	ErrBadRequest     = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden      = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound       = New(http.StatusNotFound, "Not found", nil)
	ErrConflict       = New(http.StatusConflict, "Conflict", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)
)

// Respond writes an application error as the gin JSON response.
// Unknown error values are masked as internal server errors so upstream
// failure details never reach the client.
func Respond(c *gin.Context, err error) {
	if e, ok := err.(*Error); ok {
		c.JSON(e.Code, gin.H{"error": e.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": ErrInternalServer.Message})
}

// ErrorMiddleware maps errors attached to the gin context to JSON responses
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			Respond(c, c.Errors.Last().Err)
			c.Abort()
		}
	}
}
