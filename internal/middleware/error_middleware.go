package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/app/models/dto"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/auth"
	"github.com/notesphere/notesphere/internal/pkg/filestorage"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// HandleAPIError maps a service error to its HTTP status and error envelope
func HandleAPIError(c *gin.Context, err error) {
	var providerErr *filestorage.ProviderError

	switch {
	case apperrors.Is(err, apperrors.ErrUnauthorized, auth.ErrInvalidToken, auth.ErrInvalidFormat, apperrors.ErrTokenInvalid):
		abortWithError(c, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required", err)
	case apperrors.Is(err, auth.ErrExpiredToken, apperrors.ErrTokenExpired):
		abortWithError(c, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired", err)
	case apperrors.Is(err, apperrors.ErrStorageNotConfigured, apperrors.ErrStorageAuthFailed):
		abortWithError(c, http.StatusUnauthorized, dto.ErrorCodeExternalServiceError, "File storage is not authorized", err)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		abortWithError(c, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied", err)
	case errors.Is(err, apperrors.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed", err)
	case apperrors.Is(err, apperrors.ErrBadRequest, apperrors.ErrInvalidModeration):
		abortWithError(c, http.StatusBadRequest, dto.ErrorCodeResourceInvalid, "Bad request", err)
	case apperrors.Is(err, apperrors.ErrNoteNotRejected, apperrors.ErrNoteNotFound, apperrors.ErrNoteNotDownloadable,
		apperrors.ErrYearNotFound, apperrors.ErrSemesterNotFound, apperrors.ErrSubjectNotFound,
		apperrors.ErrUserNotFound, apperrors.ErrNoticeNotFound, apperrors.ErrCommentNotFound,
		apperrors.ErrFeedbackNotFound, apperrors.ErrDriveNotConnected, apperrors.ErrResourceNotFound):
		abortWithError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found", err)
	case apperrors.Is(err, apperrors.ErrYearAlreadyExists, apperrors.ErrSemesterAlreadyExists,
		apperrors.ErrSubjectAlreadyExists, apperrors.ErrResourceAlreadyExists):
		abortWithError(c, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists", err)
	case apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrHasDependents, apperrors.ErrInvalidTransition, apperrors.ErrSweepInProgress):
		abortWithError(c, http.StatusConflict, dto.ErrorCodeConflict, "Conflict", err)
	case errors.Is(err, apperrors.ErrTooManyRequests):
		abortWithError(c, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests, "Too many requests", err)
	case errors.As(err, &providerErr):
		abortWithError(c, providerErr.StatusCode, dto.ErrorCodeExternalServiceError, "File storage request failed", err)
	default:
		logger.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled API error")
		detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(detail))
	}
}

// abortWithError writes the error envelope. A CustomError message replaces
// the generic one and its details are passed through.
func abortWithError(c *gin.Context, status int, code dto.ErrorCode, fallback string, err error) {
	message := fallback
	var details interface{}

	var custom *apperrors.CustomError
	if errors.As(err, &custom) {
		if custom.Message != "" {
			message = custom.Message
		}
		if custom.Details != nil {
			details = custom.Details
		}
	} else if err != nil {
		message = err.Error()
	}

	detail := dto.NewErrorDetail(code, message)
	if details != nil {
		detail = detail.WithDetails(details)
	}
	if status < http.StatusInternalServerError {
		detail = detail.WithSeverity(dto.ErrorSeverityWarning)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}
