package models

import (
	"time"

	"gorm.io/gorm"
)

// BugStatus enumerates the bug lifecycle: open -> in_progress -> resolved/closed.
type BugStatus string

const (
	BugOpen       BugStatus = "open"
	BugInProgress BugStatus = "in_progress"
	BugResolved   BugStatus = "resolved"
	BugClosed     BugStatus = "closed"
)

// ValidBugStatus reports whether the given string is a known status.
func ValidBugStatus(s string) bool {
	switch BugStatus(s) {
	case BugOpen, BugInProgress, BugResolved, BugClosed:
		return true
	}
	return false
}

// BugPriority enumerates scheduling priorities.
type BugPriority string

const (
	PriorityLow      BugPriority = "low"
	PriorityMedium   BugPriority = "medium"
	PriorityHigh     BugPriority = "high"
	PriorityCritical BugPriority = "critical"
)

// ValidBugPriority reports whether the given string is a known priority.
func ValidBugPriority(s string) bool {
	switch BugPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// LinkedRepo describes the GitHub repository attached to a bug.
type LinkedRepo struct {
	Owner         string `gorm:"column:linked_repo_owner" json:"owner"`
	Name          string `gorm:"column:linked_repo_name" json:"name"`
	URL           string `gorm:"column:linked_repo_url" json:"url"`
	DefaultBranch string `gorm:"column:linked_repo_default_branch" json:"default_branch"`
	Stars         int    `gorm:"column:linked_repo_stars;not null;default:0" json:"stars"`
}

// Bug is a reported defect. Key is the human-readable identifier
// "<PROJECT_KEY>-NNN" generated from the project counter.
type Bug struct {
	ID          string      `gorm:"primaryKey;size:24" json:"id"`
	Key         string      `gorm:"uniqueIndex;size:20;not null" json:"key"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `json:"description"`
	ProjectID   string      `gorm:"size:24;index;not null" json:"project_id"`
	Project     *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Status      BugStatus   `gorm:"size:20;not null;default:open;index" json:"status"`
	Priority    BugPriority `gorm:"size:20;not null;default:medium" json:"priority"`
	Severity    string      `gorm:"size:20" json:"severity"`
	Category    string      `gorm:"size:40" json:"category"`
	Resolution  string      `json:"resolution"`

	ReporterID   string     `gorm:"size:24;index;not null" json:"reporter_id"`
	Reporter     *User      `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	AssigneeID   *string    `gorm:"size:24;index" json:"assignee_id"`
	Assignee     *User      `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	ResolvedByID *string    `gorm:"size:24" json:"resolved_by_id"`
	ResolvedBy   *User      `gorm:"foreignKey:ResolvedByID" json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	ClosedAt     *time.Time `json:"closed_at"`

	LinkedRepo LinkedRepo `gorm:"embedded" json:"linked_repo"`

	Comments     []Comment       `gorm:"foreignKey:BugID" json:"comments,omitempty"`
	Activity     []ActivityEntry `gorm:"foreignKey:BugID" json:"activity,omitempty"`
	Awards       []PointsAward   `gorm:"foreignKey:BugID" json:"awards,omitempty"`
	Forks        []Fork          `gorm:"foreignKey:BugID" json:"forks,omitempty"`
	PullRequests []PullRequest   `gorm:"foreignKey:BugID" json:"pull_requests,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a 24-hex identifier when none is set.
func (b *Bug) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}

// Comment is an entry in a bug's discussion thread.
type Comment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BugID         string    `gorm:"size:24;index;not null" json:"bug_id"`
	AuthorID      string    `gorm:"size:24;not null" json:"author_id"`
	Author        *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content       string    `gorm:"not null" json:"content"`
	IsResolution  bool      `gorm:"not null;default:false" json:"is_resolution"`
	PointsAwarded int       `gorm:"not null;default:0" json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ActivityEntry records a lifecycle event on a bug.
type ActivityEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BugID     string    `gorm:"size:24;index;not null" json:"bug_id"`
	ActorID   string    `gorm:"size:24;not null" json:"actor_id"`
	Actor     *User     `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Action    string    `gorm:"size:40;not null" json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// Fork records a GitHub fork made to work on a bug.
type Fork struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BugID     string    `gorm:"size:24;index;not null" json:"bug_id"`
	UserID    string    `gorm:"size:24;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ForkURL   string    `gorm:"not null" json:"fork_url"`
	CreatedAt time.Time `json:"created_at"`
}

// PullRequestState enumerates GitHub PR states tracked here.
type PullRequestState string

const (
	PROpen   PullRequestState = "open"
	PRMerged PullRequestState = "merged"
	PRClosed PullRequestState = "closed"
)

// ValidPullRequestState reports whether the given string is a known state.
func ValidPullRequestState(s string) bool {
	switch PullRequestState(s) {
	case PROpen, PRMerged, PRClosed:
		return true
	}
	return false
}

// PullRequest records a GitHub pull request opened against a bug.
type PullRequest struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	BugID     string           `gorm:"size:24;uniqueIndex:idx_bug_pr_number;not null" json:"bug_id"`
	Number    int              `gorm:"uniqueIndex:idx_bug_pr_number;not null" json:"number"`
	Title     string           `json:"title"`
	URL       string           `json:"url"`
	State     PullRequestState `gorm:"size:20;not null;default:open" json:"state"`
	AuthorID  string           `gorm:"size:24;not null" json:"author_id"`
	Author    *User            `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	MergedAt  *time.Time       `json:"merged_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
