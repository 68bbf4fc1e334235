package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"seatengine/internal/domain"
	"seatengine/internal/http/middleware"
	"seatengine/internal/utils"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Message   string   `json:"message"`
	Code      string   `json:"code"`
	Details   any      `json:"details,omitempty"`
	Seats     []string `json:"seats,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = middleware.GetRequestID(c)
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		code := "invalid_request"
		switch {
		case domain.IsInvalidDateRange(err):
			code = "invalid_date_range"
		case domain.IsUnknownOption(err):
			code = "unknown_option"
		}
		var ve domain.ValidationError
		errors.As(err, &ve)
		var details any
		if ve.Field != "" {
			details = gin.H{"field": ve.Field}
		}
		respondError(c, http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: code, Details: details})
	case domain.IsSeatsUnavailable(err):
		respondError(c, http.StatusConflict, ErrorResponse{
			Message:   err.Error(),
			Code:      "seats_unavailable",
			Seats:     domain.ConflictingSeats(err),
			Retryable: true,
		})
	case domain.IsUnauthorized(err):
		status := http.StatusForbidden
		if !middleware.Caller(c).Authenticated() {
			status = http.StatusUnauthorized
		}
		respondError(c, status, ErrorResponse{Message: err.Error(), Code: "unauthorized"})
	case domain.IsStorageUnavailable(err):
		utils.LogEvent(middleware.GetRequestID(c), "http", "storage", "storage unavailable", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, ErrorResponse{
			Message:   "storage temporarily unavailable, retry the request",
			Code:      "storage_unavailable",
			Retryable: true,
		})
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, ErrorResponse{Message: err.Error(), Code: "not_found"})
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, ErrorResponse{Message: err.Error(), Code: "conflict"})
	default:
		utils.LogEvent(middleware.GetRequestID(c), "http", "error", "unhandled error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, ErrorResponse{Message: "internal error", Code: "internal_error"})
	}
}
