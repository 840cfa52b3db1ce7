package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StructValidator checks `validate` struct tags on commands and queries. Its errors are
// unclassified; Validation turns them into InvalidArgument.
type StructValidator struct {
	validate *validator.Validate
}

func NewStructValidator() *StructValidator {
	return &StructValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *StructValidator) Validate(_ context.Context, message any) error {
	err := v.validate.Struct(message)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		parts := make([]string, 0, len(fields))
		for _, fe := range fields {
			parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return errors.New("validation: " + strings.Join(parts, ", "))
	}
	return fmt.Errorf("validation: %w", err)
}

var _ Validator = (*StructValidator)(nil)
