package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrHasDependents         = errors.New("resource has dependent records and cannot be deleted")

	// Authentication errors
	ErrUnauthorized = errors.New("authentication required")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Rate limiting
	ErrTooManyRequests = errors.New("too many requests")
)

// Note errors
var (
	ErrNoteNotFound        = errors.New("note not found")
	ErrNoteNotRejected     = errors.New("note is not rejected")
	ErrInvalidTransition   = errors.New("invalid moderation transition")
	ErrInvalidModeration   = errors.New("invalid moderation action")
	ErrSweepInProgress     = errors.New("sweep already in progress")
	ErrNoteNotDownloadable = errors.New("note has no downloadable file")
)

// Catalog errors
var (
	ErrYearNotFound          = errors.New("year not found")
	ErrYearAlreadyExists     = errors.New("year with this number already exists")
	ErrSemesterNotFound      = errors.New("semester not found")
	ErrSemesterAlreadyExists = errors.New("semester with this number already exists in the year")
	ErrSubjectNotFound       = errors.New("subject not found")
	ErrSubjectAlreadyExists  = errors.New("subject with this code already exists in the semester")
)

// Storage errors
var (
	ErrStorageNotConfigured = errors.New("file storage credentials are not configured")
	ErrStorageAuthFailed    = errors.New("file storage authorization failed")
	ErrDriveNotConnected    = errors.New("drive account is not connected")
)

// User and social errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrNoticeNotFound   = errors.New("notice not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrFeedbackNotFound = errors.New("feedback not found")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError wraps ErrValidationFailed with a field-level message
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}
