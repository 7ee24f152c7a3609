package serverutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation on a bound request body. The
// returned error is validator.ValidationErrors, translated by the error
// middleware.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}
