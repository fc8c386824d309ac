package core

import (
	"errors"
	"fmt"
)

// ErrorCode classifies pipeline failures so the CLI can decide whether a
// condition is fatal for the run or isolated to a single file.
type ErrorCode string

const (
	ErrCodeRepositoryUnavailable ErrorCode = "repository_unavailable"
	ErrCodeServiceUnavailable    ErrorCode = "service_unavailable"
	ErrCodeModelNotInstalled     ErrorCode = "model_not_installed"
	ErrCodeTimeout               ErrorCode = "timeout"
	ErrCodeMalformedResponse     ErrorCode = "malformed_response"
	ErrCodeUnknown               ErrorCode = "unknown"
)

// Error is a structured error carrying a normalized code, the file it relates
// to (when any) and the underlying cause. It supports errors.Is by code and
// errors.As / Unwrap for the cause.
type Error struct {
	Code    ErrorCode
	Message string
	Path    string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to match Errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for use with errors.Is().
var (
	ErrRepositoryUnavailable = &Error{Code: ErrCodeRepositoryUnavailable}
	ErrServiceUnavailable    = &Error{Code: ErrCodeServiceUnavailable}
	ErrModelNotInstalled     = &Error{Code: ErrCodeModelNotInstalled}
	ErrTimeout               = &Error{Code: ErrCodeTimeout}
	ErrMalformedResponse     = &Error{Code: ErrCodeMalformedResponse}
)

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}

// Remedy returns the action a user should take to resolve a fatal condition.
// It returns "" for codes that have no remediation.
func Remedy(err error) string {
	switch CodeOf(err) {
	case ErrCodeRepositoryUnavailable:
		return "run the command inside a git repository, or initialize one with `git init`"
	case ErrCodeServiceUnavailable:
		return "start the model service with `ollama serve` or point --endpoint at a running instance"
	case ErrCodeModelNotInstalled:
		return "install the model with `ollama pull <model>` or choose an installed one with --model"
	case ErrCodeTimeout:
		return "raise the request timeout with --timeout or use a smaller model"
	default:
		return ""
	}
}
