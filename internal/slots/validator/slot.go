package validator

import (
	"errors"
	"fmt"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/model"
	"reflect"
	"strings"
	"time"

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

type SlotValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

func NewSlotValidator(log *logger.Logger) *SlotValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	log.Info("Slot validator initialized successfully")

	return &SlotValidator{
		validate: v,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for the future start check.
func (v *SlotValidator) WithClock(now func() time.Time) *SlotValidator {
	v.now = now
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// Validate checks a slot about to be created.
func (v *SlotValidator) Validate(slot *model.Slot) error {
	errs := ValidationErrors{}
	if err := v.validate.Struct(slot); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		errs = append(errs, v.translateValidationErrors(validationErrs)...)
	}
	if !slot.StartTime.IsZero() && !slot.StartTime.After(v.now()) {
		errs = append(errs, ValidationError{Field: "start_time", Message: "start_time must be in the future"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateUpdate checks the slot bounds that would result from applying an
// update. The future check only applies when the start time is being moved.
func (v *SlotValidator) ValidateUpdate(start, end time.Time, startChanged bool) error {
	errs := ValidationErrors{}
	if !end.After(start) {
		errs = append(errs, ValidationError{Field: "end_time", Message: "end_time must be after start_time"})
	}
	if startChanged && !start.After(v.now()) {
		errs = append(errs, ValidationError{Field: "start_time", Message: "start_time must be in the future"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *SlotValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid identifier", err.Field())
		case "gtfield":
			message = "end_time must be after start_time"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
