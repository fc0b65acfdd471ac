package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 ]{5,19}$`)
)

// ValidationError reports malformed input rejected before any write is
// attempted. It never reaches the remote store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateTask checks the locally enforced task constraints.
func ValidateTask(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ValidationError{Field: "title", Reason: "must not be empty"}
	}
	valid := false
	for _, c := range Categories {
		if t.Category == c {
			valid = true
			break
		}
	}
	if !valid {
		return ValidationError{Field: "category", Reason: "unknown category " + string(t.Category)}
	}
	return nil
}

// ValidateContact checks the locally enforced contact constraints: a
// name of at least two tokens and well-formed email and phone values.
func ValidateContact(c Contact) error {
	if len(strings.Fields(c.Name)) < 2 {
		return ValidationError{Field: "name", Reason: "first and last name required"}
	}
	if !emailRe.MatchString(c.Email) {
		return ValidationError{Field: "email", Reason: "malformed address"}
	}
	if !phoneRe.MatchString(c.Phone) {
		return ValidationError{Field: "phone", Reason: "malformed number"}
	}
	return nil
}
