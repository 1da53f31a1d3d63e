package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNoStylistAvailable = "NO_STYLIST_AVAILABLE"
	CodeStylistUnavailable = "STYLIST_UNAVAILABLE"
	CodeInvalidDate        = "INVALID_DATE"
	CodeInvalidSchedule    = "INVALID_SCHEDULE"
)

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

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NoStylistAvailable reports that no eligible, available staff member exists
// for the requested service at the requested slot.
func NoStylistAvailable(serviceName, date, timeOfDay string) *AppError {
	return &AppError{
		Code:       CodeNoStylistAvailable,
		Message:    fmt.Sprintf("no stylist is available for %s on %s at %s", serviceName, date, timeOfDay),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"service": serviceName,
			"date":    date,
			"time":    timeOfDay,
		},
	}
}

// StylistUnavailable reports that an explicitly requested stylist fails the
// availability check for the slot.
func StylistUnavailable(stylistID int64, serviceName, date, timeOfDay string) *AppError {
	return &AppError{
		Code:       CodeStylistUnavailable,
		Message:    fmt.Sprintf("stylist %d is not available for %s on %s at %s", stylistID, serviceName, date, timeOfDay),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"stylist_id": stylistID,
			"service":    serviceName,
			"date":       date,
			"time":       timeOfDay,
		},
	}
}

func InvalidDate(date string) *AppError {
	return &AppError{
		Code:       CodeInvalidDate,
		Message:    fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date),
		HTTPStatus: http.StatusBadRequest,
	}
}

func InvalidSchedule(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidSchedule,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
