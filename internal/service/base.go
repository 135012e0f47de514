package service

import "strings"

// isUniqueViolation detects unique-index violations across the postgres
// driver and the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "Duplicate entry")
}
