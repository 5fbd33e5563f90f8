package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError wraps validator failures so the error middleware can map
// them to a 400 with field-level detail.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var invalid validator.ValidationErrors
		fields := make([]string, 0)
		if errors, ok := err.(validator.ValidationErrors); ok {
			invalid = errors
		}
		for _, fieldErr := range invalid {
			fields = append(fields, fmt.Sprintf("%s (%s)", fieldErr.Field(), fieldErr.Tag()))
		}
		return &ValidationError{Fields: fields}
	}
	return nil
}
