package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/mandawilson/smile-dashboard/internal/errs"
)

// Validatable is implemented by every request DTO.
type Validatable interface {
	Validate() error
}

// CustomValidationError is a rule checked in code rather than by tags.
type CustomValidationError struct {
	Field   string
	Message string
}

type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var validate = validator.New()

// Struct runs the tag validations of v.
func Struct(v any) error {
	return validate.Struct(v)
}

// BindAndValidate binds path, query and body into payload, then validates
// it. Both failures are 400s.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		message := "Invalid request"
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			if msg, ok := echoErr.Message.(string); ok {
				message = msg
			}
		}
		return errs.NewBadRequestError(message, false, nil, nil, nil)
	}

	if err := payload.Validate(); err != nil {
		msg, fieldErrors := extractValidationError(err)
		return errs.NewBadRequestError(msg, true, nil, fieldErrors, nil)
	}

	return nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	switch e := err.(type) {
	case CustomValidationErrors:
		for _, ce := range e {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: ce.Field, Error: ce.Message})
		}
	case validator.ValidationErrors:
		for _, fe := range e {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: strings.ToLower(fe.Field()),
				Error: fieldMessage(fe),
			})
		}
	default:
		return err.Error(), nil
	}

	return "Validation failed", fieldErrors
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", err.Param())
		}
		return fmt.Sprintf("must not exceed %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "email":
		return "must be a valid email address"
	default:
		if err.Param() != "" {
			return fmt.Sprintf("%s: %s:%s", strings.ToLower(err.Field()), err.Tag(), err.Param())
		}
		return fmt.Sprintf("%s: %s", strings.ToLower(err.Field()), err.Tag())
	}
}
