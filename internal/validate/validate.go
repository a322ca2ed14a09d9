// Package validate checks and normalizes client input for signup, login and
// schedule creation. Every check returns the first violated rule as *Error.
package validate

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Error reports a rejected field. Message is safe to show to clients.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

type rule struct {
	required   bool
	min, max   int // rune count; max 0 means unbounded
	pattern    *regexp.Regexp
	missing    string
	lengthMsg  string
	patternMsg string
}

func (r rule) check(field, value string) error {
	if value == "" {
		if r.required {
			return &Error{Field: field, Message: r.missing}
		}
		return nil
	}
	n := utf8.RuneCountInString(value)
	if n < r.min || (r.max > 0 && n > r.max) {
		return &Error{Field: field, Message: r.lengthMsg}
	}
	if r.pattern != nil && !r.pattern.MatchString(value) {
		return &Error{Field: field, Message: r.patternMsg}
	}
	return nil
}

const (
	MaxSubTasks       = 50
	MaxDescriptionLen = 500
)

var passwordChars = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?~` + "`" + `]+$`)

var rules = map[string]rule{
	"name": {
		required:   true,
		min:        5,
		max:        50,
		pattern:    regexp.MustCompile(`^[A-Za-z\s]+$`),
		missing:    "Name is required.",
		lengthMsg:  "Your name must be between 5 and 50 characters long.",
		patternMsg: "Name can only contain letters and spaces.",
	},
	"phoneNo": {
		required:   true,
		pattern:    regexp.MustCompile(`^\+234[789]\d{9}$`),
		missing:    "Phone number is required.",
		patternMsg: "Invalid Nigerian phone number format. Must start with +234, 0, or implied +234, followed by 7, 8, or 9 and 9 more digits.",
	},
	"username": {
		required:   true,
		min:        3,
		max:        30,
		pattern:    regexp.MustCompile(`^[a-z0-9]+$`),
		missing:    "Username is required.",
		lengthMsg:  "Username must be between 3 and 30 characters long.",
		patternMsg: "Username can only contain lowercase letters and numbers, no special characters or spaces.",
	},
	"password": {
		required:   true,
		min:        10,
		pattern:    passwordChars,
		missing:    "Password is required.",
		lengthMsg:  "Password must be at least 10 characters long.",
		patternMsg: "Password can only contain letters, numbers, and common special characters (e.g., !@#$%^&*). No spaces allowed.",
	},
	"taskName": {
		required:   true,
		min:        5,
		max:        30,
		pattern:    regexp.MustCompile(`^[A-Za-z0-9\s]+$`),
		missing:    "Task name is required.",
		lengthMsg:  "Task name must be between 5 and 30 characters long.",
		patternMsg: "Task name can only contain letters, numbers and spaces.",
	},
	"description": {
		max:       MaxDescriptionLen,
		lengthMsg: fmt.Sprintf("Description cannot be longer than %d characters.", MaxDescriptionLen),
	},
	"duration": {
		required:   true,
		pattern:    regexp.MustCompile(`^\d{1,2}:\d{1,2}:\d{1,2}$`),
		missing:    "Duration hours, minutes and seconds are all required.",
		patternMsg: "Duration must be in HH:MM:SS format.",
	},
}
