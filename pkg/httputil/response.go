package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vaxbook/booking-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an API error with its kind and structured detail.
type Error struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps an application error onto an HTTP status and
// serializes its kind and details so callers can render an actionable
// message.
func RespondWithError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if e, ok := err.(*errors.AppError); ok {
		appErr = e
	} else {
		appErr = errors.Internal(err)
	}

	c.JSON(StatusFor(appErr.Kind), Response{
		Success: false,
		Error: &Error{
			Kind:    string(appErr.Kind),
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

// StatusFor maps error kinds to HTTP statuses.
func StatusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindBadRequest, errors.KindConfiguration:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindForbidden:
		return http.StatusForbidden
	case errors.KindIneligiblePatient, errors.KindWindowClosed, errors.KindSlotDisabled:
		return http.StatusUnprocessableEntity
	case errors.KindSlotFull, errors.KindDuplicateBooking, errors.KindOverlapConflict, errors.KindCommitConflict:
		return http.StatusConflict
	case errors.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
