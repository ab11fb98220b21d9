package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeDeliveryFailed     = "DELIVERY_FAILED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorTemplate is the page rendered for every error response.
const ErrorTemplate = "error.html"

// APIError is the body of an error response, rendered as a page or as JSON
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Title is the heading of the error page
func (e *APIError) Title() string {
	return http.StatusText(e.Status)
}

// NewAPIError creates a new APIError
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// RespondWithError aborts the request with the error page, or JSON when the client asks for it
func RespondWithError(c *gin.Context, err *APIError) {
	c.Abort()
	c.Negotiate(err.Status, gin.Negotiate{
		Offered:  []string{gin.MIMEHTML, gin.MIMEJSON},
		HTMLName: ErrorTemplate,
		Data:     err,
	})
}

func respond(c *gin.Context, status int, code, message, fallback string) {
	if message == "" {
		message = fallback
	}
	RespondWithError(c, NewAPIError(status, code, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	respond(c, http.StatusForbidden, ErrCodeForbidden, message, "You do not have permission to access this page.")
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrCodeNotFound, message, "The requested page was not found.")
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidInput, message, "Invalid request.")
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	respond(c, http.StatusTooManyRequests, ErrCodeTooManyRequests, message, "Too many requests, try again later.")
}

// BadGateway sends a 502 response for a failed upstream such as the mail server
func BadGateway(c *gin.Context, message string) {
	respond(c, http.StatusBadGateway, ErrCodeDeliveryFailed, message, "An upstream service failed.")
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	respond(c, http.StatusInternalServerError, ErrCodeInternalError, message, "Internal server error.")
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	respond(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message, "Service temporarily unavailable.")
}
