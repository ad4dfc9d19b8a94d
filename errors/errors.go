package errors

import (
	"errors"
	"net/http"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Error is an API error carrying the HTTP status it should be answered with.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error
func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrNotFound            = New("resource not found", http.StatusNotFound)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)

	// ErrMissingEmail is returned when an external identity without an email
	// would have to create a new local user.
	ErrMissingEmail = New("identity provider did not supply an email", http.StatusBadRequest)

	// ErrInvalidTransition is returned when a report is not in a state the
	// requested lifecycle step can start from.
	ErrInvalidTransition = New("report status does not allow this action", http.StatusConflict)
	ErrCollectorMismatch = New("report is assigned to another collector", http.StatusForbidden)

	ErrInsufficientBalance = New("insufficient points balance", http.StatusUnprocessableEntity)
	ErrAnalysisUnavailable = New("image analysis is not configured", http.StatusServiceUnavailable)
)

// StatusOf returns the HTTP status carried by err, or 500 for anything else.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// ErrorHandler answers requests rejected by the rate limiter.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"errors":  "too many requests",
		"message": "try again after " + info.ResetTime.Format("15:04:05"),
		"status":  http.StatusText(http.StatusTooManyRequests),
	})
}
