package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxTextLength is the longest task text accepted, in characters.
const DefaultMaxTextLength = 4096

// Validator holds the shared primitive checks.
type Validator struct {
	maxTextLength int
}

// NewValidator returns a Validator using DefaultMaxTextLength.
func NewValidator() *Validator {
	return NewValidatorWithMaxLength(DefaultMaxTextLength)
}

// NewValidatorWithMaxLength returns a Validator with a custom text limit.
// A non-positive limit falls back to the default.
func NewValidatorWithMaxLength(maxTextLength int) *Validator {
	if maxTextLength <= 0 {
		maxTextLength = DefaultMaxTextLength
	}
	return &Validator{maxTextLength: maxTextLength}
}

// MaxTextLength returns the configured limit.
func (v *Validator) MaxTextLength() int {
	return v.maxTextLength
}

// IsNonEmptyString reports whether s has any non-space content.
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidTextLength counts runes, not bytes.
func (v *Validator) IsValidTextLength(s string) bool {
	return utf8.RuneCountInString(s) <= v.maxTextLength
}

// HasOnlyPrintable rejects control characters other than newline and tab.
func (v *Validator) HasOnlyPrintable(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return utf8.ValidString(s)
}

// IsValidPosition reports whether position can address a task.
func (v *Validator) IsValidPosition(position int64) bool {
	return position > 0
}

// TrimAndValidateString trims surrounding whitespace.
func (v *Validator) TrimAndValidateString(s string) string {
	return strings.TrimSpace(s)
}
