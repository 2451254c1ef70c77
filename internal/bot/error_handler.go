package bot

import (
	"taskbot/internal/errors"
	"taskbot/internal/validation"
)

// ErrorHandler maps command failures to reply text.
type ErrorHandler struct{}

// NewErrorHandler creates a new error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// Message returns the text shown to the user for err.
func (eh *ErrorHandler) Message(err error) string {
	if validationErr, ok := err.(*validation.ValidationError); ok {
		return validationErr.GetUserFriendlyMessage()
	}

	if appErr, ok := errors.AsAppError(err); ok {
		if field, _ := appErr.GetContext("field"); appErr.IsType(errors.ErrorTypeInvalidInput) && field == "command" {
			return msgUnknownCommand
		}
		return errors.GetUserMessage(err)
	}

	return msgTryAgain
}

// IsUserError reports whether err was caused by the user's input.
func (eh *ErrorHandler) IsUserError(err error) bool {
	if validation.IsValidationError(err) {
		return true
	}
	return errors.IsErrorType(err, errors.ErrorTypeValidation) ||
		errors.IsErrorType(err, errors.ErrorTypeInvalidInput) ||
		errors.IsErrorType(err, errors.ErrorTypeNotFound)
}
