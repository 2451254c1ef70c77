package validation

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field names used in ValidationError entries.
const (
	FieldTaskText = "text"
	FieldPosition = "position"
)

// TaskValidator checks user input before it reaches the store.
type TaskValidator struct {
	validator *Validator
}

// NewTaskValidator returns a TaskValidator with default limits.
func NewTaskValidator() *TaskValidator {
	return &TaskValidator{validator: NewValidator()}
}

// NewTaskValidatorWithMaxLength returns a TaskValidator with a custom text limit.
func NewTaskValidatorWithMaxLength(maxTextLength int) *TaskValidator {
	return &TaskValidator{validator: NewValidatorWithMaxLength(maxTextLength)}
}

// GetValidTaskText trims text and returns it if it may be stored.
func (tv *TaskValidator) GetValidTaskText(text string) (string, error) {
	trimmed := tv.validator.TrimAndValidateString(text)
	validationError := NewValidationError()

	if !tv.validator.IsNonEmptyString(trimmed) {
		validationError.AddRequiredError(FieldTaskText, "Task text cannot be empty.")
		return "", validationError
	}
	if !tv.validator.IsValidTextLength(trimmed) {
		validationError.AddInvalidLengthError(FieldTaskText, utf8.RuneCountInString(trimmed), tv.validator.MaxTextLength())
	}
	if !tv.validator.HasOnlyPrintable(trimmed) {
		validationError.AddInvalidCharacterError(FieldTaskText, trimmed)
	}

	if validationError.HasErrors() {
		return "", validationError
	}
	return trimmed, nil
}

// ValidatePosition rejects positions that can never exist.
func (tv *TaskValidator) ValidatePosition(position int64) error {
	if !tv.validator.IsValidPosition(position) {
		validationError := NewValidationError()
		validationError.AddInvalidValueError(FieldPosition, position, "Task number must be a positive integer.")
		return validationError
	}
	return nil
}

// ParsePosition parses a user supplied task number such as "3".
func (tv *TaskValidator) ParsePosition(arg string) (int64, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		validationError := NewValidationError()
		validationError.AddRequiredError(FieldPosition, "Please specify the task number.")
		return 0, validationError
	}

	position, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		validationError := NewValidationError()
		validationError.AddInvalidFormatError(FieldPosition, arg, "Task number must be a positive integer.")
		return 0, validationError
	}
	if err := tv.ValidatePosition(position); err != nil {
		return 0, err
	}
	return position, nil
}
