package models

import (
	"time"
)

// AwardReason is the closed set of reasons a point delta can carry. Unknown
// reasons are rejected at the API boundary rather than bucketed silently.
type AwardReason string

const (
	ReasonBugReported    AwardReason = "bug_reported"
	ReasonBugResolved    AwardReason = "bug_resolved"
	ReasonCommentHelpful AwardReason = "comment_helpful"
	ReasonContribution   AwardReason = "contribution"
	// ReasonRedeemed is the only reason valid for deductions.
	ReasonRedeemed AwardReason = "redeemed"
)

// ValidAwardReason reports whether r may be used for an award.
func ValidAwardReason(r AwardReason) bool {
	switch r {
	case ReasonBugReported, ReasonBugResolved, ReasonCommentHelpful, ReasonContribution:
		return true
	}
	return false
}

// Default point values for ledger-triggering actions.
const (
	PointsBugReported    = 10
	PointsBugResolved    = 25
	PointsCommentHelpful = 5
	PointsForkRecorded   = 15
)

// PointsEntry is an append-only history record of a single point transaction.
// Points is the signed delta; PreviousTotal/NewTotal capture the balance
// around the write so the running-total invariant can be audited.
type PointsEntry struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        string      `gorm:"size:24;index;not null" json:"user_id"`
	Points        int         `gorm:"not null" json:"points"`
	Reason        AwardReason `gorm:"size:32;not null" json:"reason"`
	BugID         *string     `gorm:"size:24;index" json:"bug_id"`
	Note          string      `json:"note"`
	PreviousTotal int         `gorm:"not null" json:"previous_total"`
	NewTotal      int         `gorm:"not null" json:"new_total"`
	CreatedAt     time.Time   `json:"created_at"`
}

// PointsAward is the per-bug de-duplication ledger: a user may receive at most
// one award per (bug, reason), enforced both by the in-transaction check and
// the composite unique index.
type PointsAward struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	BugID     string      `gorm:"size:24;uniqueIndex:idx_award_bug_user_reason;not null" json:"bug_id"`
	UserID    string      `gorm:"size:24;uniqueIndex:idx_award_bug_user_reason;not null" json:"user_id"`
	Reason    AwardReason `gorm:"size:32;uniqueIndex:idx_award_bug_user_reason;not null" json:"reason"`
	Points    int         `gorm:"not null" json:"points"`
	CreatedAt time.Time   `json:"created_at"`
}
