package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/records-api/internal/models"
)

var phoneRegex = regexp.MustCompile(`^\+?[\d\s\-()]{7,}$`)

// validate is the shared validator instance; it caches struct metadata
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()

	// report fields by their JSON name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return models.ValidDepartments[fl.Field().String()]
	})
	v.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		return models.ValidUnits[fl.Field().String()]
	})

	return v
}

// Employee validates a normalized employee input
func Employee(in *models.EmployeeInput) []models.FieldError {
	return fieldErrors(validate.Struct(in))
}

// Article validates a normalized article input
func Article(in *models.ArticleInput) []models.FieldError {
	return fieldErrors(validate.Struct(in))
}

// ID checks that a record id is a UUID
func ID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func fieldErrors(err error) []models.FieldError {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "body", Message: err.Error()}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, models.FieldError{
			Field:   e.Field(),
			Message: message(e),
			Value:   e.Value(),
		})
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return "invalid email format"
	case "phone":
		return "invalid phone number format"
	case "department":
		return "invalid department"
	case "unit":
		return "invalid unit"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
