package serverutils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"qbank-admin/pkg/staging"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest runs the `validate` tags of req and reports failures as a
// *staging.ValidationError so the error handler answers 400.
func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return staging.NewValidationError(err.Error())
	}
	fields := make([]staging.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, staging.FieldError{Field: fe.Namespace(), Error: describe(fe)})
	}
	return staging.NewValidationError("invalid request", fields...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
