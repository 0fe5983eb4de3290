package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const tagNoPassword = "nopassword"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// the password must not contain the word "password" in any case
	_ = v.RegisterValidation(tagNoPassword, func(fl validator.FieldLevel) bool {
		return !strings.Contains(strings.ToLower(fl.Field().String()), "password")
	})

	return v
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "Email is invalid"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gte":
		return "must be a positive number"
	case tagNoPassword:
		return `Password must not contain "password"`
	default:
		return "is invalid"
	}
}

// toValidationError converts validator output; other errors pass through.
func toValidationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	out := &ValidationError{Message: "validation failed", Fields: make(map[string]string, len(ves))}
	for _, fe := range ves {
		if _, seen := out.Fields[fe.Field()]; !seen {
			out.Fields[fe.Field()] = describe(fe)
		}
	}
	return out
}

// checkField validates a single value against a validator tag.
func checkField(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			return fieldError(field, describe(ves[0]))
		}
		return err
	}
	return nil
}

// checkUpdateKeys rejects the whole update when any key is outside allowed.
func checkUpdateKeys(fields map[string]json.RawMessage, allowed ...string) error {
	for k := range fields {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return &ValidationError{Message: "Invalid updates!"}
		}
	}
	return nil
}

func decodeField(fields map[string]json.RawMessage, name string, dst any) error {
	if err := json.Unmarshal(fields[name], dst); err != nil {
		return fieldError(name, "has the wrong type")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
