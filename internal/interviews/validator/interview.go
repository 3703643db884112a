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

type InterviewValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

func NewInterviewValidator(log *logger.Logger) *InterviewValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	log.Info("Interview validator initialized successfully")

	return &InterviewValidator{
		validate: v,
		logger:   log,
		now:      time.Now,
	}
}

func (v *InterviewValidator) WithClock(now func() time.Time) *InterviewValidator {
	v.now = now
	return v
}

// ValidateBooking checks the shape of a booking request. Whether the times
// match the slot is decided by the booking itself.
func (v *InterviewValidator) ValidateBooking(req *model.BookingRequest) error {
	errs, err := v.structErrors(req)
	if err != nil {
		return err
	}
	if !req.StartTime.IsZero() && !req.EndTime.IsZero() && !req.EndTime.After(req.StartTime) {
		errs = append(errs, ValidationError{Field: "end_time", Message: "end_time must be after start_time"})
	}
	if !req.StartTime.IsZero() && !req.StartTime.After(v.now()) {
		errs = append(errs, ValidationError{Field: "start_time", Message: "start_time must be in the future"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks any request struct carrying validate tags.
func (v *InterviewValidator) Validate(s any) error {
	errs, err := v.structErrors(s)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *InterviewValidator) structErrors(s any) (ValidationErrors, error) {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs), nil
		}
		return nil, err
	}
	return ValidationErrors{}, nil
}

func (v *InterviewValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid identifier", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be an absolute URL", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
