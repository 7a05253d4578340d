package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/garyjia/caf-approval/internal/application/port"
	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/workflow"
)

// RequestValidator checks requests against the validate tags on entity.Request
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports json field names
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// ValidateRequest returns a *workflow.ValidationError for the first failing field
func (v *RequestValidator) ValidateRequest(r *entity.Request) error {
	err := v.validate.Struct(r)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("validate request: %w", err)
	}

	fe := errs[0]
	return &workflow.ValidationError{
		Field:  fe.Field(),
		Reason: describe(fe),
		Err:    errs,
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "numeric":
		return "must be numeric"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

var _ port.PayloadValidator = (*RequestValidator)(nil)
