// Package validation validates decoded request bodies with
// go-playground/validator and renders failures as field messages.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const minPasswordLength = 8

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("password", validPassword)
		_ = v.RegisterValidation("notblank", notBlank)
		validate = v
	})
	return validate
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return engine().Struct(s)
}

// validPassword requires a minimum length and at least one non-digit.
func validPassword(fl validator.FieldLevel) bool {
	pw := fl.Field().String()
	if len([]rune(pw)) < minPasswordLength {
		return false
	}
	return strings.IndexFunc(pw, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ToDetails converts decode and validation errors into a map of field to message.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", param)
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", param)
	case "password":
		return fmt.Sprintf("Password must be at least %d characters and not entirely numeric.", minPasswordLength)
	case "alphanum":
		return "Enter a value containing only letters and digits."
	default:
		if param != "" {
			return fmt.Sprintf("failed validation '%s=%s'", fe.Tag(), param)
		}
		return fmt.Sprintf("failed validation '%s'", fe.Tag())
	}
}
