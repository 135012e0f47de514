package repository

import (
	"context"
	"errors"

	"bugtrail/internal/models"

	"gorm.io/gorm"
)

// CounterRepository hands out per-project bug sequence numbers.
type CounterRepository interface {
	// Next atomically increments and returns the sequence for the project key.
	Next(ctx context.Context, projectKey string) (int64, error)
}

type counterRepository struct {
	db *gorm.DB
}

// NewCounterRepository creates a new counter repository instance.
func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) Next(ctx context.Context, projectKey string) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Counter{}).
			Where("project_key = ?", projectKey).
			UpdateColumn("seq", gorm.Expr("seq + 1"))
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			// First bug for this project. A concurrent insert loses on the
			// primary key; retry the increment in that case.
			counter := models.Counter{ProjectKey: projectKey, Seq: 1}
			if err := tx.Create(&counter).Error; err != nil {
				if !isUniqueConstraintError(err) {
					return err
				}
				inc := tx.Model(&models.Counter{}).
					Where("project_key = ?", projectKey).
					UpdateColumn("seq", gorm.Expr("seq + 1"))
				if inc.Error != nil {
					return inc.Error
				}
				if inc.RowsAffected == 0 {
					return errors.New("counter row vanished during increment")
				}
			} else {
				seq = 1
				return nil
			}
		}

		var counter models.Counter
		if err := tx.First(&counter, "project_key = ?", projectKey).Error; err != nil {
			return err
		}
		seq = counter.Seq
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}
