package repository

import (
	"context"
	"errors"

	"bugtrail/internal/cache"
	"bugtrail/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectRepository defines data access methods for projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	GetByKey(ctx context.Context, key string) (*models.Project, error)
	ListForUser(ctx context.Context, userID string) ([]models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, member *models.ProjectMember) error
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository instance.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := cache.Aside(ctx, cache.ProjectKey(id), &project, cache.ProjectTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("Members").
			Preload("Members.User").
			First(&project, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Project", id)
		}
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) GetByKey(ctx context.Context, key string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Project", key)
		}
		return nil, err
	}
	return &project, nil
}

// ListForUser returns every project the user owns or is a member of.
func (r *projectRepository) ListForUser(ctx context.Context, userID string) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Distinct("projects.*").
		Joins("LEFT JOIN project_members ON project_members.project_id = projects.id").
		Where("projects.owner_id = ? OR project_members.user_id = ?", userID, userID).
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("project key already in use")
		}
		return err
	}
	return nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	// Preloaded members stay out of the save.
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error; err != nil {
		return err
	}
	cache.InvalidateProject(ctx, project.ID)
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Project", id)
	}
	cache.InvalidateProject(ctx, id)
	return nil
}

func (r *projectRepository) AddMember(ctx context.Context, member *models.ProjectMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("user is already a project member")
		}
		return err
	}
	cache.InvalidateProject(ctx, member.ProjectID)
	return nil
}

func (r *projectRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	err = r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND owner_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
