package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeInvalidState     = "INVALID_STATE"
	CodeStorage          = "STORAGE_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
	CodeTimeout          = "TIMEOUT"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
)

var statusByCode = map[string]int{
	CodeNotFound:         http.StatusNotFound,
	CodeValidation:       http.StatusUnprocessableEntity,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeConflict:         http.StatusConflict,
	CodeInvalidState:     http.StatusConflict,
	CodeStorage:          http.StatusInternalServerError,
	CodeInternal:         http.StatusInternalServerError,
	CodeTimeout:          http.StatusGatewayTimeout,
	CodeUnavailable:      http.StatusServiceUnavailable,
	CodeInvalidInput:     http.StatusBadRequest,
	CodeRateLimited:      http.StatusTooManyRequests,
	CodeUnsupportedMedia: http.StatusUnsupportedMediaType,
	CodePayloadTooLarge:  http.StatusRequestEntityTooLarge,
}

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

// ToJSON renders the client facing body. The cause never leaves the process.
func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(e)
	return data
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

func newCoded(code, message string, cause error) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return Wrap(cause, code, message, status)
}

func NotFound(resource string) *AppError {
	return newCoded(CodeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

// Validation reports client-fixable input problems. Field level problems go
// under details["fields"].
func Validation(message string, details map[string]any) *AppError {
	return newCoded(CodeValidation, message, nil).WithDetails(details)
}

func InvalidInput(message string) *AppError {
	return newCoded(CodeInvalidInput, message, nil)
}

func Unauthorized(message string) *AppError {
	return newCoded(CodeUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return newCoded(CodeForbidden, message, nil)
}

func Conflict(message string) *AppError {
	return newCoded(CodeConflict, message, nil)
}

// SchedulingConflict reports that a participant already attends another
// active interview overlapping the requested time.
func SchedulingConflict(participant, conflictingInterviewID string) *AppError {
	return Conflict(fmt.Sprintf("The %s already has an interview at this time", participant)).
		WithDetails(map[string]any{
			"participant":              participant,
			"conflicting_interview_id": conflictingInterviewID,
		})
}

// State reports an operation that is not valid for the current lifecycle
// state of a slot or interview.
func State(message string) *AppError {
	return newCoded(CodeInvalidState, message, nil)
}

func SlotUnavailable(slotID string) *AppError {
	return State("Slot is not available").WithDetails(map[string]any{"slot_id": slotID})
}

// Storage hides persistence failures behind a generic message. The cause is
// kept for logging only.
func Storage(message string, err error) *AppError {
	return newCoded(CodeStorage, message, err)
}

func Internal(message string, err error) *AppError {
	return newCoded(CodeInternal, message, err)
}

func Timeout(message string) *AppError {
	return newCoded(CodeTimeout, message, nil)
}

func Unavailable(service string) *AppError {
	return newCoded(CodeUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), nil)
}

func RateLimited(retryAfterSeconds int) *AppError {
	return newCoded(CodeRateLimited, "Rate limit exceeded", nil).
		WithDetails(map[string]any{"retry_after_seconds": retryAfterSeconds})
}

func UnsupportedMediaType(contentType string) *AppError {
	return newCoded(CodeUnsupportedMedia, "Content-Type must be application/json", nil).
		WithDetails(map[string]any{"content_type": contentType})
}

func PayloadTooLarge(limit int64) *AppError {
	return newCoded(CodePayloadTooLarge, "Request body too large", nil).
		WithDetails(map[string]any{"max_bytes": limit})
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
