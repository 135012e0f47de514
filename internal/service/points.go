// Package service contains the business logic layer.
package service

import (
	"context"
	"errors"

	"bugtrail/internal/cache"
	"bugtrail/internal/models"
	"bugtrail/internal/observability"

	"gorm.io/gorm"
)

// breakdownColumns maps award reasons to the per-category earn bucket.
var breakdownColumns = map[models.AwardReason]string{
	models.ReasonBugReported:    "points_bugs_reported",
	models.ReasonBugResolved:    "points_bugs_resolved",
	models.ReasonCommentHelpful: "points_comments",
	models.ReasonContribution:   "points_contributions",
}

// AwardInput describes a single positive point delta.
type AwardInput struct {
	UserID string
	BugID  string // optional; required for de-duplicated awards
	Reason models.AwardReason
	Points int
	Note   string
}

// Validate checks the input before any database work.
func (in AwardInput) Validate() error {
	if in.UserID == "" {
		return models.NewValidationError("user_id is required")
	}
	if !models.ValidAwardReason(in.Reason) {
		return models.NewValidationError("unknown award reason: " + string(in.Reason))
	}
	if in.Points <= 0 {
		return models.NewValidationError("points must be positive")
	}
	return nil
}

// PointsService is the only writer of the points ledger. Every mutation runs
// in a transaction so the user totals, the history entry and the dedup record
// commit or roll back together.
type PointsService struct {
	db *gorm.DB
}

// NewPointsService creates a new points service instance.
func NewPointsService(db *gorm.DB) *PointsService {
	return &PointsService{db: db}
}

// Award applies a single point delta in its own transaction.
func (s *PointsService) Award(ctx context.Context, in AwardInput) (*models.PointsEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var entry *models.PointsEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.AwardTx(tx, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	observability.PointsAwardsTotal.WithLabelValues(string(in.Reason)).Inc()
	cache.InvalidateUser(ctx, in.UserID)
	return entry, nil
}

// BulkAward applies every input inside one transaction. Any failure, including
// a duplicate, rolls back all of them.
func (s *PointsService) BulkAward(ctx context.Context, inputs []AwardInput) ([]models.PointsEntry, error) {
	if len(inputs) == 0 {
		return nil, models.NewValidationError("awards list is empty")
	}
	for _, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}

	entries := make([]models.PointsEntry, 0, len(inputs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, in := range inputs {
			entry, err := s.AwardTx(tx, in)
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, in := range inputs {
		observability.PointsAwardsTotal.WithLabelValues(string(in.Reason)).Inc()
		cache.InvalidateUser(ctx, in.UserID)
	}
	return entries, nil
}

// AwardTx applies one award inside an already-open transaction. Callers that
// bundle awards with other writes (bug creation, comments, fork records) use
// this directly so the whole unit commits atomically.
func (s *PointsService) AwardTx(tx *gorm.DB, in AwardInput) (*models.PointsEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var bugID *string
	if in.BugID != "" {
		bugID = &in.BugID

		// Dedup check: at most one award per (bug, user, reason). The unique
		// index backs this up against concurrent transactions.
		var existing int64
		err := tx.Model(&models.PointsAward{}).
			Where("bug_id = ? AND user_id = ? AND reason = ?", in.BugID, in.UserID, in.Reason).
			Count(&existing).Error
		if err != nil {
			return nil, err
		}
		if existing > 0 {
			observability.DuplicateAwardRejections.Inc()
			return nil, models.NewDuplicateAwardError(in.UserID, in.BugID)
		}

		award := models.PointsAward{
			BugID:  in.BugID,
			UserID: in.UserID,
			Reason: in.Reason,
			Points: in.Points,
		}
		if err := tx.Create(&award).Error; err != nil {
			if isUniqueViolation(err) {
				observability.DuplicateAwardRejections.Inc()
				return nil, models.NewDuplicateAwardError(in.UserID, in.BugID)
			}
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"points_total":  gorm.Expr("points_total + ?", in.Points),
		"points_earned": gorm.Expr("points_earned + ?", in.Points),
	}
	if col, ok := breakdownColumns[in.Reason]; ok {
		updates[col] = gorm.Expr(col+" + ?", in.Points)
	}

	result := tx.Model(&models.User{}).Where("id = ?", in.UserID).UpdateColumns(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, models.NewNotFoundError("User", in.UserID)
	}

	var user models.User
	if err := tx.First(&user, "id = ?", in.UserID).Error; err != nil {
		return nil, err
	}

	entry := models.PointsEntry{
		UserID:        in.UserID,
		Points:        in.Points,
		Reason:        in.Reason,
		BugID:         bugID,
		Note:          in.Note,
		PreviousTotal: user.PointsTotal - in.Points,
		NewTotal:      user.PointsTotal,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Deduct removes points from a user's balance. The guarded update refuses to
// drive the balance negative.
func (s *PointsService) Deduct(ctx context.Context, userID string, points int, note string) (*models.PointsEntry, error) {
	if userID == "" {
		return nil, models.NewValidationError("user_id is required")
	}
	if points <= 0 {
		return nil, models.NewValidationError("points must be positive")
	}

	var entry *models.PointsEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ? AND points_total >= ?", userID, points).
			UpdateColumns(map[string]interface{}{
				"points_total": gorm.Expr("points_total - ?", points),
				"points_spent": gorm.Expr("points_spent + ?", points),
			})
		if result.Error != nil {
			return result.Error
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", userID)
			}
			return err
		}
		if result.RowsAffected == 0 {
			return models.NewInsufficientBalanceError(user.PointsTotal, points)
		}

		e := models.PointsEntry{
			UserID:        userID,
			Points:        -points,
			Reason:        models.ReasonRedeemed,
			Note:          note,
			PreviousTotal: user.PointsTotal + points,
			NewTotal:      user.PointsTotal,
		}
		if err := tx.Create(&e).Error; err != nil {
			return err
		}
		entry = &e
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.PointsDeductionsTotal.Inc()
	cache.InvalidateUser(ctx, userID)
	return entry, nil
}
