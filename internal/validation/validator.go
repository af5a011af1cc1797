package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var clockKeyPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("appointment_type", validateAppointmentType)
	_ = validate.RegisterValidation("clock_key", validateClockKey)
}

// ValidateStruct runs the struct-tag validations registered for the
// booking request shape.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateAppointmentType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "consultation", "lab-test", "follow-up":
		return true
	}
	return false
}

// validateClockKey accepts 24-hour "HH:MM" sub-slot keys.
func validateClockKey(fl validator.FieldLevel) bool {
	return clockKeyPattern.MatchString(fl.Field().String())
}
