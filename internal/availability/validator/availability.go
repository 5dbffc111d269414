package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"healthfirst/pkg/logger"
	"healthfirst/pkg/model"

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

// AvailabilityValidator enforces both the per-field tags on the model and
// the cross-field rules that tags cannot express.
type AvailabilityValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

func NewAvailabilityValidator(log *logger.Logger) *AvailabilityValidator {
	v := validator.New()

	log.Info("Availability validator initialized successfully")

	return &AvailabilityValidator{
		validate: v,
		logger:   log,
		now:      time.Now,
	}
}

// Validate checks a slot for creation or update. The slot date must not be
// in the past relative to the wall clock at validation time.
func (av *AvailabilityValidator) Validate(a *model.Availability) error {
	if err := av.validate.Struct(a); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return av.translateValidationErrors(validationErrs)
		}
		return err
	}

	return av.crossFieldErrors(a)
}

// ValidateRecurring checks a recurring definition before expansion. On top
// of the base rules, the recurrence triple must be complete and coherent.
func (av *AvailabilityValidator) ValidateRecurring(a *model.Availability) error {
	if !a.IsRecurring {
		return ValidationErrors{{
			Field:   "is_recurring",
			Message: "is_recurring must be true for recurring availability",
		}}
	}
	return av.Validate(a)
}

func (av *AvailabilityValidator) crossFieldErrors(a *model.Availability) error {
	var errs ValidationErrors

	if a.StartTime >= a.EndTime {
		errs = append(errs, ValidationError{
			Field:   "start_time",
			Message: "start_time must be before end_time",
		})
	}

	today := av.now().Format(model.DateLayout)
	if a.Date < today {
		errs = append(errs, ValidationError{
			Field:   "date",
			Message: "date cannot be in the past",
		})
	}

	if a.IsRecurring {
		if a.RecurrencePattern == "" {
			errs = append(errs, ValidationError{
				Field:   "recurrence_pattern",
				Message: "recurrence_pattern is required for recurring availability",
			})
		}
		if a.RecurrenceEndDate == "" {
			errs = append(errs, ValidationError{
				Field:   "recurrence_end_date",
				Message: "recurrence_end_date is required for recurring availability",
			})
		} else if a.RecurrenceEndDate < a.Date {
			errs = append(errs, ValidationError{
				Field:   "recurrence_end_date",
				Message: "recurrence_end_date cannot be before date",
			})
		}
	} else {
		if a.RecurrencePattern != "" || a.RecurrenceEndDate != "" {
			errs = append(errs, ValidationError{
				Field:   "is_recurring",
				Message: "recurrence fields are only allowed on recurring availability",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (av *AvailabilityValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must match format %s", err.Field(), translateLayout(err.Param()))
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		case "ltefield":
			message = fmt.Sprintf("%s cannot exceed %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA timezone name", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

func translateLayout(layout string) string {
	switch layout {
	case model.DateLayout:
		return "YYYY-MM-DD"
	case model.TimeLayout:
		return "HH:MM"
	}
	return layout
}
