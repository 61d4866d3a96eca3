package model

import (
	"sort"
	"strings"
)

const (
	MinUsernameLength = 6
	MinPasswordLength = 6
)

// Form validation messages, as shown next to the offending input.
const (
	MsgRequired       = "Required"
	MsgTooShort       = "Too Short!"
	MsgPasswordsMatch = "Passwords must match"
)

// Form field names.
const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldSchool          = "school"
	FieldInterest        = "interest"
)

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

func (fe FieldErrors) errOrNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Validate checks the register form. It returns FieldErrors listing every
// failing field, or nil.
func (r Registration) Validate() error {
	fe := FieldErrors{}
	checkMin(fe, FieldUsername, r.Username, MinUsernameLength)
	checkMin(fe, FieldPassword, r.Password, MinPasswordLength)

	switch {
	case r.ConfirmPassword == "":
		fe[FieldConfirmPassword] = MsgRequired
	case r.ConfirmPassword != r.Password:
		fe[FieldConfirmPassword] = MsgPasswordsMatch
	}

	checkChoice(fe, FieldSchool, r.School, Schools)
	checkChoice(fe, FieldInterest, r.Interest, Interests)
	return fe.errOrNil()
}

// Validate checks the login form. Length rules are left to the backend.
func (c Credentials) Validate() error {
	fe := FieldErrors{}
	if c.Username == "" {
		fe[FieldUsername] = MsgRequired
	}
	if c.Password == "" {
		fe[FieldPassword] = MsgRequired
	}
	return fe.errOrNil()
}

func checkMin(fe FieldErrors, field, value string, min int) {
	switch {
	case value == "":
		fe[field] = MsgRequired
	case len([]rune(value)) < min:
		fe[field] = MsgTooShort
	}
}

func checkChoice(fe FieldErrors, field, value string, choices []Choice) {
	if value == "" {
		fe[field] = MsgRequired
		return
	}
	if !IsChoice(value, choices) {
		fe[field] = "Must be one of: " + strings.Join(ChoiceValues(choices), ", ")
	}
}

// IsChoice reports whether value is one of the choice values.
func IsChoice(value string, choices []Choice) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// ChoiceValues returns the submitted values of choices, in order.
func ChoiceValues(choices []Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Value
	}
	return out
}
