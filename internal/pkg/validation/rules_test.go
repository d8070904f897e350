package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type subjectInput struct {
	Code     string `validate:"required,subjectcode"`
	MimeType string `validate:"required,mimetype"`
}

func TestCustomRules(t *testing.T) {
	v := validator.New()
	if err := RegisterOn(v); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := v.Struct(subjectInput{Code: "CS201", MimeType: "application/pdf"}); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	err := v.Struct(subjectInput{Code: "algorithms", MimeType: "pdf"})
	if err == nil {
		t.Fatalf("invalid input accepted")
	}
	details := Describe(err)
	if details["code"] != "must look like CS201" {
		t.Fatalf("unexpected code message: %v", details)
	}
	if details["mimeType"] != "must be a MIME type" {
		t.Fatalf("unexpected mime message: %v", details)
	}
}

func TestSubjectCodePattern(t *testing.T) {
	for _, ok := range []string{"CS201", "MATH-110", "EE2010", "PHY101L"} {
		if !SubjectCodePattern.MatchString(ok) {
			t.Fatalf("%s should match", ok)
		}
	}
	for _, bad := range []string{"cs201", "C201", "CS", "CS 201", ""} {
		if SubjectCodePattern.MatchString(bad) {
			t.Fatalf("%q should not match", bad)
		}
	}
}

func TestDescribeIgnoresOtherErrors(t *testing.T) {
	if Describe(nil) != nil {
		t.Fatalf("nil error should describe to nil")
	}
}
