package catalog

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// Validator wraps go-playground/validator and converts its errors into
// *types.ValidationError.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	return &Validator{v: v}
}

// Validate checks s and lists every failing field, in declaration order.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make([]string, 0, len(fieldErrs))
	missing := true
	for _, e := range fieldErrs {
		fields = append(fields, e.Field())
		if e.Tag() != "required" && e.Tag() != "min" {
			missing = false
		}
	}
	if missing {
		return types.NewValidationError("missing required fields", fields...)
	}
	return types.NewValidationError("invalid fields", fields...)
}
