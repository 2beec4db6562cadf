package errors

import (
	stderrors "errors"
	"fmt"
)

const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeInvalidReq       = "INVALID_REQUEST"
	ErrCodeInvalidLevel     = "INVALID_LEVEL"
	ErrCodeBusy             = "BUSY"
	ErrCodeStartRequest     = "START_REQUEST_FAILED"
	ErrCodeJobFailed        = "JOB_FAILED"
	ErrCodePoll             = "POLL_FAILED"
	ErrCodeStoryUnavailable = "STORY_UNAVAILABLE"
	ErrCodeDocumentInvalid  = "DOCUMENT_INVALID"
	ErrCodeStorage          = "STORAGE_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether any error in err's chain is an AppError with the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first AppError in err's chain, or ErrCodeInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}
