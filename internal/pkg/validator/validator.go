package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eventhub/eventhub-api/internal/pkg/apperror"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("schema"), ",", 2)[0]
		}
		return name
	})

	registerCustomValidations()
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

func registerCustomValidations() {
	// Self-registration never grants ADMIN.
	validate.RegisterValidation("role", oneOf("CUSTOMER", "ORGANIZER"))
	validate.RegisterValidation("period", oneOf("year", "month", "day"))
	validate.RegisterValidation("sort_order", oneOf("asc", "desc", ""))
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "gtefield":
			errors[field] = "Value must not be before " + err.Param()
		case "role":
			errors[field] = "Invalid role. Must be: CUSTOMER or ORGANIZER"
		case "period":
			errors[field] = "Invalid period. Must be: year, month, or day"
		case "sort_order":
			errors[field] = "Invalid sort order. Must be: asc or desc"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// Struct validates s and returns a validation error carrying field messages.
func Struct(s interface{}) error {
	if fields := Validate(s); fields != nil {
		return apperror.ValidationFields(fields)
	}
	return nil
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
