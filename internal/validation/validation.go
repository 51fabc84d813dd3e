// Package validation wraps go-playground/validator with the storefront's
// custom rules and converts failures into VALIDATION_FAILED errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"storefront/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-Z\d\s-]+$`)
	lowerPattern      = regexp.MustCompile(`[a-z]`)
	upperPattern      = regexp.MustCompile(`[A-Z]`)
	digitPattern      = regexp.MustCompile(`\d`)
	specialPattern    = regexp.MustCompile(`[!@#$%^&*]`)
)

// Validator validates request structs.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the `personname` and `strongpassword` rules
// registered. Field names in errors use the json tag.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return lowerPattern.MatchString(s) &&
			upperPattern.MatchString(s) &&
			digitPattern.MatchString(s) &&
			specialPattern.MatchString(s)
	})
	return &Validator{validate: v}
}

// Struct validates s and returns apperrors.ErrValidation with one detail per
// failing field.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.ErrValidation.Wrap(err)
	}
	details := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		details[e.Field()] = message(e)
	}
	return apperrors.ErrValidation.WithDetails(details)
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return "invalid email format"
	case "min":
		if isNumber(e.Kind()) {
			return fmt.Sprintf("%s should be at least %s", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s should contain at least %s characters", e.Field(), e.Param())
	case "max":
		if isNumber(e.Kind()) {
			return fmt.Sprintf("%s should not exceed %s", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s should not exceed %s characters", e.Field(), e.Param())
	case "personname":
		return fmt.Sprintf("%s can only contain letters, numbers, space and hyphen", e.Field())
	case "strongpassword":
		return "password should contain a lowercase letter, an uppercase letter, a number and one of !@#$%^&*"
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
