// Package validator wraps the go-playground/validator library to provide
// declarative struct validation with standardized error formatting. Fields
// are validated through struct tags (e.g. `validate:"required"`), and all
// violations are reported in a single joined error chain.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is the root error of every validation failure chain.
// Callers can use errors.Is to detect validation failures regardless of how
// many field errors were reported.
var ErrValidationFailed = errors.New("struct validation failed")

// validator is the package-level instance, initialized on import.
var validator *gvalidator.Validate

// errStringFormat describes a single field violation.
//
// Example: "'TxHash': value '' does not meet the requirements for the 'required' validation"
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
}

// formatError converts a raw validator error into a joined error chain
// rooted at ErrValidationFailed, with one formatted entry per field error.
// Non-validation errors are returned unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		err := fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		)

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks whether the given struct satisfies its validation tags.
// It returns nil when every field passes, or a joined error including
// ErrValidationFailed and one message per failing field.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
