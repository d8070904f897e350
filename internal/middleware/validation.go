package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/app/models/dto"
	"github.com/notesphere/notesphere/internal/pkg/validation"
)

// BindJSON binds and validates the request body into obj. On failure it
// writes a 400 with per-field messages and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request body").
		WithSeverity(dto.ErrorSeverityWarning)
	if fields := validation.Describe(err); fields != nil {
		detail = detail.WithDetails(fields)
	} else if errors.Is(err, io.EOF) {
		detail = detail.WithDetails("request body is empty")
	} else {
		detail = detail.WithDetails(err.Error())
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
	return false
}
