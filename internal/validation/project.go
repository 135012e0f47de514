// Package validation holds input format rules shared by services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var projectKeyRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

// ValidateProjectKey validates an explicit project key: 2-10 uppercase
// alphanumeric characters starting with a letter.
func ValidateProjectKey(key string) error {
	if !projectKeyRegex.MatchString(key) {
		return fmt.Errorf("key must be 2-10 uppercase alphanumeric characters starting with a letter")
	}
	return nil
}

// DeriveProjectKey builds a key from a project name: initials of up to ten
// words, or the leading alphanumerics of a single word, uppercased and padded
// to the two-character minimum.
func DeriveProjectKey(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	if len(words) >= 2 {
		for _, w := range words {
			if b.Len() >= 10 {
				break
			}
			b.WriteRune(unicode.ToUpper([]rune(w)[0]))
		}
	} else if len(words) == 1 {
		for _, r := range words[0] {
			if b.Len() >= 10 {
				break
			}
			b.WriteRune(unicode.ToUpper(r))
		}
	}

	key := b.String()
	// Keys must start with a letter; strip leading digits.
	key = strings.TrimLeft(key, "0123456789")
	if len(key) == 1 {
		key += "X"
	}
	return key
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

var reservedUsernames = map[string]struct{}{
	"admin":   {},
	"api":     {},
	"auth":    {},
	"bugs":    {},
	"support": {},
	"system":  {},
	"users":   {},
}

// ValidateUsername validates username format and reserved names.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-30 characters and contain only letters, numbers, and underscores")
	}
	if _, exists := reservedUsernames[strings.ToLower(username)]; exists {
		return fmt.Errorf("username is reserved")
	}
	return nil
}
