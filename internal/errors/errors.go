// Package errors defines the bot's infrastructure errors and reports them in one place.
// Domain outcomes such as a duplicate link or an exhausted budget are not
// errors here: the conversation engine answers those with ordinary replies.
package errors

import (
	stderrors "errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Codes label errors in logs, metrics and Sentry tags.
const (
	CodeStorage  = "storage"
	CodeDelivery = "delivery"
	CodePanic    = "panic"
	CodeUnknown  = "unknown"
)

// GenericUserMessage is shown when nothing more specific is known.
const GenericUserMessage = "Произошла ошибка. Попробуйте позже"

// AppError carries what the operator needs (Code, Message, Severity) and
// what the user is told (UserMessage) for a single failure.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// NewStorageError wraps a failure of the conversation state backend,
// including a user lock that could not be taken in time.
func NewStorageError(cause error) *AppError {
	return &AppError{
		Code:        CodeStorage,
		Message:     fmt.Sprintf("state storage: %v", cause),
		UserMessage: "Временная проблема, попробуйте позже",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewDeliveryError wraps a failed outbound Telegram call to recipient.
func NewDeliveryError(recipient int64, retryable bool, cause error) *AppError {
	return &AppError{
		Code:        CodeDelivery,
		Message:     fmt.Sprintf("delivery to %d: %v", recipient, cause),
		UserMessage: "Сервис временно недоступен",
		Severity:    SeverityMedium,
		Retryable:   retryable,
		cause:       cause,
	}
}

// NewPanicError records a recovered handler panic.
func NewPanicError(recovered any) *AppError {
	return &AppError{
		Code:        CodePanic,
		Message:     fmt.Sprintf("panic: %v", recovered),
		UserMessage: "⚠️ Что-то пошло не так. Попробуй ещё раз чуть позже.",
		Severity:    SeverityCritical,
	}
}

// classify returns err as an AppError, treating anything foreign as an unknown high-severity failure.
func classify(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr != nil {
		return appErr
	}

	return &AppError{
		Code:        CodeUnknown,
		Message:     err.Error(),
		UserMessage: GenericUserMessage,
		Severity:    SeverityHigh,
		cause:       err,
	}
}
