// Package repository contains the data access layer built on GORM.
package repository

import (
	"strings"
)

// isUniqueConstraintError detects unique-index violations across the postgres
// driver and the sqlite driver used in tests.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "Duplicate entry")
}
