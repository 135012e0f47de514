package repository

import (
	"context"
	"errors"
	"strings"

	"bugtrail/internal/identifier"
	"bugtrail/internal/models"

	"gorm.io/gorm"
)

// BugFilter narrows List queries. Zero values mean "no filter".
type BugFilter struct {
	ProjectID  string
	Status     string
	Priority   string
	AssigneeID string
	ReporterID string
	Search     string
	Limit      int
	Offset     int
}

// BugRepository defines data access methods for bugs and their sub-records.
type BugRepository interface {
	GetByID(ctx context.Context, id string) (*models.Bug, error)
	GetByKey(ctx context.Context, key string) (*models.Bug, error)
	// Resolve looks up a bug by native ID or human-readable key.
	Resolve(ctx context.Context, raw string) (*models.Bug, error)
	List(ctx context.Context, filter BugFilter) ([]models.Bug, int64, error)
	Delete(ctx context.Context, id string) error
	CountByStatusForUser(ctx context.Context, userID string) (map[models.BugStatus]int64, error)
	Comments(ctx context.Context, bugID string) ([]models.Comment, error)
	Activity(ctx context.Context, bugID string, limit int) ([]models.ActivityEntry, error)
	RecentActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

type bugRepository struct {
	db *gorm.DB
}

// NewBugRepository creates a new bug repository instance.
func NewBugRepository(db *gorm.DB) BugRepository {
	return &bugRepository{db: db}
}

func (r *bugRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Reporter").
		Preload("Assignee").
		Preload("ResolvedBy").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.Author").
		Preload("Forks").
		Preload("PullRequests")
}

func (r *bugRepository) GetByID(ctx context.Context, id string) (*models.Bug, error) {
	var bug models.Bug
	if err := r.preloaded(ctx).First(&bug, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Bug", id)
		}
		return nil, err
	}
	return &bug, nil
}

func (r *bugRepository) GetByKey(ctx context.Context, key string) (*models.Bug, error) {
	var bug models.Bug
	if err := r.preloaded(ctx).First(&bug, "key = ?", strings.ToUpper(key)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Bug", key)
		}
		return nil, err
	}
	return &bug, nil
}

func (r *bugRepository) Resolve(ctx context.Context, raw string) (*models.Bug, error) {
	switch identifier.ClassifyBug(raw).Kind {
	case identifier.KindNative:
		return r.GetByID(ctx, raw)
	case identifier.KindBugKey:
		return r.GetByKey(ctx, raw)
	default:
		return nil, models.NewValidationError("invalid bug identifier format")
	}
}

func (r *bugRepository) List(ctx context.Context, filter BugFilter) ([]models.Bug, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Bug{})

	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.AssigneeID != "" {
		query = query.Where("assignee_id = ?", filter.AssigneeID)
	}
	if filter.ReporterID != "" {
		query = query.Where("reporter_id = ?", filter.ReporterID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(key) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var bugs []models.Bug
	err := query.
		Preload("Reporter").
		Preload("Assignee").
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&bugs).Error
	if err != nil {
		return nil, 0, err
	}
	return bugs, total, nil
}

func (r *bugRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Bug{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Bug", id)
	}
	return nil
}

func (r *bugRepository) CountByStatusForUser(ctx context.Context, userID string) (map[models.BugStatus]int64, error) {
	type row struct {
		Status models.BugStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Bug{}).
		Select("status, COUNT(*) as count").
		Where("reporter_id = ? OR assignee_id = ?", userID, userID).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.BugStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *bugRepository) Comments(ctx context.Context, bugID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("bug_id = ?", bugID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *bugRepository) Activity(ctx context.Context, bugID string, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.ActivityEntry
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("bug_id = ?", bugID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *bugRepository) RecentActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.ActivityEntry
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
