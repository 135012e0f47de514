package repository

import (
	"context"

	"bugtrail/internal/models"

	"gorm.io/gorm"
)

// PointsRepository exposes read access to the points ledger. Writes go
// through the points service so every delta stays inside a transaction.
type PointsRepository interface {
	History(ctx context.Context, userID string, limit, offset int) ([]models.PointsEntry, int64, error)
	AwardsForBug(ctx context.Context, bugID string) ([]models.PointsAward, error)
}

type pointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository creates a new points repository instance.
func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) History(ctx context.Context, userID string, limit, offset int) ([]models.PointsEntry, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&models.PointsEntry{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.PointsEntry
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *pointsRepository) AwardsForBug(ctx context.Context, bugID string) ([]models.PointsAward, error) {
	var awards []models.PointsAward
	err := r.db.WithContext(ctx).
		Where("bug_id = ?", bugID).
		Order("created_at ASC").
		Find(&awards).Error
	if err != nil {
		return nil, err
	}
	return awards, nil
}
