package booking

import (
	"strings"
	"unicode/utf8"

	"github.com/hopono/scheduling/internal/model"
)

// validateContact checks the client-submitted fields. Shapes match what the
// public booking form promises: a human-length name, a plausible address, and
// an international phone number.
func validateContact(name, email, phone string) *FieldError {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < 2 {
		return fieldErr("name", "name must be at least 2 characters")
	}
	if utf8.RuneCountInString(name) > 100 {
		return fieldErr("name", "name must be at most 100 characters")
	}

	if !validEmail(email) {
		return fieldErr("email", "email address is not valid")
	}

	if !validPhone(phone) {
		return fieldErr("phone", "phone must be + followed by 7 to 15 digits")
	}
	return nil
}

// validEmail requires local@domain where the domain contains a dot. Anything
// stricter belongs to a confirmation email, not a regex.
func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// validPhone requires a leading + and 7 to 15 digits, E.164 style.
func validPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	if !strings.HasPrefix(phone, "+") {
		return false
	}
	digits := phone[1:]
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalizePreference(pref string) string {
	switch strings.ToLower(strings.TrimSpace(pref)) {
	case model.PreferPhone:
		return model.PreferPhone
	case model.PreferEither:
		return model.PreferEither
	default:
		return model.PreferEmail
	}
}
