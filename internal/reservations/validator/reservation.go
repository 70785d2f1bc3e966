package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pensio/pkg/logger"
	"pensio/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New()

	if err := v.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		log.Fatal("Failed to register 'calendar_date' validator",
			"error", err,
		)
	}

	log.Info("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

// validateCalendarDate accepts dates in "2006-01-02" form only. The
// fixed-width form keeps stored dates lexicographically ordered.
func validateCalendarDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) != len(model.DateLayout) {
		return false
	}
	_, err := time.Parse(model.DateLayout, value)
	return err == nil
}

func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	if err := v.validate.Struct(reservation); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	// Same-day stays are allowed: checkin and checkout may coincide.
	if reservation.CheckoutDate < reservation.CheckinDate {
		return ValidationErrors{
			ValidationError{
				Field:   "CheckoutDate",
				Message: "checkout_date must not precede checkin_date",
			},
		}
	}

	return nil
}

func (v *ReservationValidator) ValidateUpdate(updates *model.ReservationUpdate) error {
	if err := v.validate.Struct(updates); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		out = append(out, ValidationError{
			Field:   err.Field(),
			Message: messageForTag(err),
		})
	}
	return out
}

func messageForTag(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "calendar_date":
		return "must be a calendar date formatted as YYYY-MM-DD"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", err.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "mongodb":
		return "must be a valid object ID"
	default:
		return fmt.Sprintf("failed validation for '%s'", err.Tag())
	}
}
