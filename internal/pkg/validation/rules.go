package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// SubjectCodePattern matches course codes such as CS201 or MATH-110
	SubjectCodePattern = regexp.MustCompile(`^[A-Z]{2,6}-?[0-9]{2,4}[A-Z]?$`)

	// MimeTypePattern matches type/subtype MIME strings
	MimeTypePattern = regexp.MustCompile(`^[a-z]+/[a-z0-9.+\-]+$`)
)

// Register installs the custom tags on gin's validator engine. Safe to call more than once.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterOn(v)
}

// RegisterOn installs the custom tags on v
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("subjectcode", func(fl validator.FieldLevel) bool {
		return SubjectCodePattern.MatchString(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register subjectcode: %w", err)
	}
	if err := v.RegisterValidation("mimetype", func(fl validator.FieldLevel) bool {
		return MimeTypePattern.MatchString(strings.ToLower(fl.Field().String()))
	}); err != nil {
		return fmt.Errorf("register mimetype: %w", err)
	}
	return nil
}

// Describe turns validator errors into field -> message pairs for error details
func Describe(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := map[string]string{}
	for _, e := range verrs {
		out[lowerFirst(e.Field())] = message(e)
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "subjectcode":
		return "must look like CS201"
	case "mimetype":
		return "must be a MIME type"
	default:
		return "failed " + e.Tag() + " validation"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
