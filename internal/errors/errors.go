package errors

import "fmt"

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeRemoteAPI  ErrCode = "REMOTE_API"
	ErrCodeGeneration ErrCode = "GENERATION"
	ErrCodeIO         ErrCode = "IO"
	ErrCodeConfig     ErrCode = "CONFIG"
	ErrCodeNotFound   ErrCode = "NOT_FOUND"
	ErrCodeBadRequest ErrCode = "BAD_REQUEST"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewRemoteAPIError creates an error for a failed update-source call
func NewRemoteAPIError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeRemoteAPI,
		Message: message,
		Err:     err,
	}
}

// NewGenerationError creates an error for a failed text-generation call
func NewGenerationError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeGeneration,
		Message: message,
		Err:     err,
	}
}

// NewIOError creates an error for a failed report write
func NewIOError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeIO,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates an error for invalid startup configuration
func NewConfigError(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfig,
		Message: fmt.Sprintf("%s: %s", field, message),
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// IsRemoteAPI checks if the error is an update-source error
func IsRemoteAPI(err error) bool {
	return hasCode(err, ErrCodeRemoteAPI)
}

// IsGeneration checks if the error is a text-generation error
func IsGeneration(err error) bool {
	return hasCode(err, ErrCodeGeneration)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func hasCode(err error, code ErrCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}
