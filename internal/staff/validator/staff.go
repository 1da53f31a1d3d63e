package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"salonhq/pkg/logger"
	"salonhq/pkg/model"
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

type StaffValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewStaffValidator(log *logger.Logger) *StaffValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator", "error", err)
	}
	if err := v.RegisterValidation("weekly_schedule", validateWeeklySchedule); err != nil {
		log.Fatal("Failed to register 'weekly_schedule' validator", "error", err)
	}

	log.Info("Staff validator initialized successfully")

	return &StaffValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	_, err := model.ParseClock(value)
	return err == nil
}

// validateWeeklySchedule checks weekday keys and window well-formedness.
// A nil window is a day off and always valid.
func validateWeeklySchedule(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != 0 && field.IsNil() {
		return true
	}

	schedule, ok := field.Interface().(map[string]*model.DayHours)
	if !ok {
		return false
	}

	valid := map[string]struct{}{}
	for _, d := range model.Weekdays {
		valid[d] = struct{}{}
	}

	for day, hours := range schedule {
		if _, known := valid[strings.ToLower(day)]; !known {
			return false
		}
		if hours == nil {
			continue
		}
		if _, err := model.ParseClock(hours.Start); err != nil {
			return false
		}
		if _, err := model.ParseClock(hours.End); err != nil {
			return false
		}
	}
	return true
}

func (v *StaffValidator) Validate(member *model.StaffMember) error {
	if err := v.validate.Struct(member); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateScheduleWindows(member.Schedule)
}

func (v *StaffValidator) ValidateUpdate(update *model.StaffUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.Schedule != nil {
		return v.validateScheduleWindows(*update.Schedule)
	}
	return nil
}

// validateScheduleWindows enforces start <= end on every working day.
func (v *StaffValidator) validateScheduleWindows(schedule map[string]*model.DayHours) error {
	for day, hours := range schedule {
		if hours == nil {
			continue
		}
		if !hours.Valid() {
			return ValidationErrors{
				ValidationError{
					Field:   "Schedule",
					Message: fmt.Sprintf("%s: start (%s) must not be after end (%s)", day, hours.Start, hours.End),
				},
			}
		}
	}
	return nil
}

func (v *StaffValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +12125551234)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "clock":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "weekly_schedule":
			message = "schedule keys must be weekday names and each window must have valid HH:MM times"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
