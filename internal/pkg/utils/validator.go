package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// youtubeIDRegex matches provider video ids: exactly 9-11 characters of
// alphanumerics plus - and _.
var youtubeIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{9,11}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator provides validation methods
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, &ValidationError{
		Field:   field,
		Message: message,
	})
}

// Errors returns all validation errors
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// HasErrors returns true if there are any validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Required checks if a string is not empty after trimming
func (v *Validator) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "this field is required")
		return false
	}
	return true
}

// MaxLength checks a string's rune count upper bound
func (v *Validator) MaxLength(field, value string, max int) bool {
	if utf8.RuneCountInString(value) > max {
		v.AddError(field, "value is too long")
		return false
	}
	return true
}

// ValidateRoomName validates a room display name
func (v *Validator) ValidateRoomName(field, name string) bool {
	if !v.Required(field, name) {
		return false
	}
	return v.MaxLength(field, name, 100)
}

// ValidateUserName validates a participant display name
func (v *Validator) ValidateUserName(field, name string) bool {
	if !v.Required(field, name) {
		return false
	}
	return v.MaxLength(field, name, 50)
}

// ValidateVideoID checks a provider video id shape
func ValidateVideoID(videoID string) bool {
	return youtubeIDRegex.MatchString(videoID)
}
