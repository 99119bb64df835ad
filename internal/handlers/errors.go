package handlers

import (
	"errors"
	"net/http"

	"controlling_motor/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidBodyPref = "invalid body: "
	errInternal        = "internal error"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusFor maps service errors to HTTP statuses. Unknown errors are internal.
func statusFor(err error) (int, string) {
	var stepErr *service.StepError
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSequenceNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrNotSessionOwner):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrRampRunning):
		return http.StatusConflict, err.Error()
	case errors.As(err, &stepErr),
		errors.Is(err, service.ErrEmptySequence),
		errors.Is(err, service.ErrInvalidRampName):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// respondServiceError answers with the status mapped from err and logs the
// operator behind the request.
func (h *Handler) respondServiceError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code, msg := statusFor(err)
	if op := operatorID(c); op != 0 {
		kv = append(kv, "operator", op)
	}
	h.logAndJSONError(c, code, msg, logKey, err, kv...)
}
