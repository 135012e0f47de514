// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole enumerates the roles a user can hold.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleManager   UserRole = "manager"
	RoleDeveloper UserRole = "developer"
	RoleTester    UserRole = "tester"
)

// ValidUserRole reports whether the given string is a known role.
func ValidUserRole(s string) bool {
	switch UserRole(s) {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleTester:
		return true
	}
	return false
}

// PointsBreakdown holds the per-category earn totals. Stored as flat columns
// on the users table so the ledger can increment buckets atomically.
type PointsBreakdown struct {
	BugsReported  int `gorm:"column:points_bugs_reported;not null;default:0" json:"bugs_reported"`
	BugsResolved  int `gorm:"column:points_bugs_resolved;not null;default:0" json:"bugs_resolved"`
	Comments      int `gorm:"column:points_comments;not null;default:0" json:"comments"`
	Contributions int `gorm:"column:points_contributions;not null;default:0" json:"contributions"`
}

// User represents an account created on first successful Google sign-in.
// PointsTotal always equals PointsEarned - PointsSpent and equals the sum of
// all PointsEntry deltas for the user; the ledger is the only writer.
type User struct {
	ID                  string          `gorm:"primaryKey;size:24" json:"id"`
	ExternalID          string          `gorm:"uniqueIndex;size:28;not null" json:"-"`
	Email               string          `gorm:"uniqueIndex;not null" json:"email"`
	Name                string          `json:"name"`
	Username            string          `gorm:"size:30;index" json:"username"`
	Industry            string          `json:"industry"`
	Phone               string          `json:"phone"`
	AvatarURL           string          `json:"avatar_url"`
	Role                UserRole        `gorm:"size:20;not null;default:developer" json:"role"`
	OnboardingCompleted bool            `gorm:"not null;default:false" json:"onboarding_completed"`
	PointsTotal         int             `gorm:"not null;default:0" json:"points_total"`
	PointsEarned        int             `gorm:"not null;default:0" json:"points_earned"`
	PointsSpent         int             `gorm:"not null;default:0" json:"points_spent"`
	Breakdown           PointsBreakdown `gorm:"embedded" json:"breakdown"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate assigns a 24-hex identifier when none is set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RequiresOnboarding reports whether the client must be routed to onboarding:
// a username must be present and the onboarding flag set.
func (u *User) RequiresOnboarding() bool {
	return u.Username == "" || !u.OnboardingCompleted
}
