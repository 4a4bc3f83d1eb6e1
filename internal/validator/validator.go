package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	validator.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validator.RegisterValidation("role", validateRole)

	return validator
}

func validateRole(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	return role == model.RoleUser || role == model.RoleAdmin
}

// EchoValidator adapts a validator.Validate to echo.Validator.
type EchoValidator struct {
	v *validator.Validate
}

func NewEchoValidator() *EchoValidator { return &EchoValidator{v: NewValidator()} }

func (ev *EchoValidator) Validate(i any) error { return ev.v.Struct(i) }

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", err.Param())
		}
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "url":
		return "must be a valid URL"
	case "role":
		return "must be USER or ADMIN"
	default:
		return "is invalid"
	}
}

// Fields maps each failing field of a validation error to its message.
// It returns nil when err is not a validator.ValidationErrors.
func Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = ValidationMessage(fe)
	}
	return out
}
