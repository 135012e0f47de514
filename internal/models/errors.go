package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the API.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeDuplicateAward      = "DUPLICATE_AWARD"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInternal            = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to an HTTP status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeValidation, CodeDuplicateAward, CodeInsufficientBalance:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewDuplicateAwardError indicates a (bug, user, reason) award already exists.
func NewDuplicateAwardError(userID, bugID string) *AppError {
	return &AppError{
		Code:    CodeDuplicateAward,
		Message: fmt.Sprintf("points already awarded to user %s for bug %s", userID, bugID),
	}
}

// NewInsufficientBalanceError indicates a deduction would drive the balance negative.
func NewInsufficientBalanceError(have, want int) *AppError {
	return &AppError{
		Code:    CodeInsufficientBalance,
		Message: fmt.Sprintf("insufficient points balance: have %d, need %d", have, want),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// devMode controls whether underlying error details are exposed to clients.
var devMode bool

// SetDevMode toggles detail exposure in error responses. Called once at startup.
func SetDevMode(enabled bool) {
	devMode = enabled
}

// ErrorResponse is the standardized API error envelope.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
}

// RespondWithError writes a standardized error envelope. When err is an
// *AppError its own status mapping wins over the supplied status.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{
		Success:   false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response.Message = appErr.Message
		response.Code = appErr.Code
		status = appErr.HTTPStatus()
		if appErr.Err != nil && devMode {
			response.Error = appErr.Err.Error()
		}
	} else {
		response.Message = "Internal server error"
		response.Code = CodeInternal
		if devMode && err != nil {
			response.Error = err.Error()
		}
	}

	return c.Status(status).JSON(response)
}
