package rostrait

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var fieldTypePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(/[a-zA-Z][a-zA-Z0-9_]*)?(\[[0-9]*\])?$`)

// NewValidator returns a validator with the naming rules of message
// definitions registered:
//   - rosname: field, constant and base type names
//   - rostype: field types, optionally package qualified and with an array suffix
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("rosname", func(fl validator.FieldLevel) bool {
		return identPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("rostype", func(fl validator.FieldLevel) bool {
		return fieldTypePattern.MatchString(fl.Field().String())
	})
	return v
}
