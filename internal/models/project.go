package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectArchived  ProjectStatus = "archived"
	ProjectCompleted ProjectStatus = "completed"
)

// Project groups bugs under a short uppercase key used for human bug IDs.
type Project struct {
	ID          string          `gorm:"primaryKey;size:24" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Key         string          `gorm:"uniqueIndex;size:10;not null" json:"key"`
	Description string          `json:"description"`
	OwnerID     string          `gorm:"size:24;index;not null" json:"owner_id"`
	Owner       *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Status      ProjectStatus   `gorm:"size:20;not null;default:active" json:"status"`
	BugsTotal   int             `gorm:"not null;default:0" json:"bugs_total"`
	BugsOpen    int             `gorm:"not null;default:0" json:"bugs_open"`
	BugsClosed  int             `gorm:"not null;default:0" json:"bugs_closed"`
	Members     []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate assigns a 24-hex identifier when none is set.
func (p *Project) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// ProjectMember ties a user to a project with a per-project role.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID string    `gorm:"size:24;uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID    string    `gorm:"size:24;uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      UserRole  `gorm:"size:20;not null;default:developer" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Counter generates per-project bug sequences. Incremented atomically so
// concurrent bug creation under one project never yields colliding keys.
type Counter struct {
	ProjectKey string    `gorm:"primaryKey;size:10" json:"project_key"`
	Seq        int64     `gorm:"not null;default:0" json:"seq"`
	UpdatedAt  time.Time `json:"updated_at"`
}
