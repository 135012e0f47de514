package service

import (
	"context"
	"strings"

	"bugtrail/internal/models"
	"bugtrail/internal/repository"
	"bugtrail/internal/validation"

	"gorm.io/gorm"
)

// CreateProjectInput carries the fields accepted when creating a project.
type CreateProjectInput struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Description string `json:"description"`
}

// ProjectService implements project CRUD and membership.
type ProjectService struct {
	db       *gorm.DB
	projects repository.ProjectRepository
}

// NewProjectService creates a new project service instance.
func NewProjectService(db *gorm.DB, projects repository.ProjectRepository) *ProjectService {
	return &ProjectService{db: db, projects: projects}
}

// Create makes a new project. The key is derived from the name when absent;
// the creator becomes owner and first member.
func (s *ProjectService) Create(ctx context.Context, owner *models.User, in CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}

	key := strings.ToUpper(strings.TrimSpace(in.Key))
	if key == "" {
		key = validation.DeriveProjectKey(name)
	}
	if err := validation.ValidateProjectKey(key); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	project := &models.Project{
		Name:        name,
		Key:         key,
		Description: in.Description,
		OwnerID:     owner.ID,
		Status:      models.ProjectActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			if isUniqueViolation(err) {
				return models.NewValidationError("project key already in use")
			}
			return err
		}
		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    owner.ID,
			Role:      models.RoleManager,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	return s.projects.GetByID(ctx, project.ID)
}

// Get returns a project the caller can see.
func (s *ProjectService) Get(ctx context.Context, caller *models.User, id string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		member, err := s.projects.IsMember(ctx, project.ID, caller.ID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, models.NewForbiddenError("you are not a member of this project")
		}
	}
	return project, nil
}

// List returns the caller's projects.
func (s *ProjectService) List(ctx context.Context, caller *models.User) ([]models.Project, error) {
	return s.projects.ListForUser(ctx, caller.ID)
}

// Update changes project fields. Owner or admin only.
func (s *ProjectService) Update(ctx context.Context, caller *models.User, id, name, description, status string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != caller.ID && !caller.IsAdmin() {
		return nil, models.NewForbiddenError("only the project owner or an admin can update a project")
	}

	if name != "" {
		project.Name = strings.TrimSpace(name)
	}
	if description != "" {
		project.Description = description
	}
	if status != "" {
		switch models.ProjectStatus(status) {
		case models.ProjectActive, models.ProjectArchived, models.ProjectCompleted:
			project.Status = models.ProjectStatus(status)
		default:
			return nil, models.NewValidationError("unknown project status: " + status)
		}
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes a project. Owner or admin only.
func (s *ProjectService) Delete(ctx context.Context, caller *models.User, id string) error {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if project.OwnerID != caller.ID && !caller.IsAdmin() {
		return models.NewForbiddenError("only the project owner or an admin can delete a project")
	}
	return s.projects.Delete(ctx, project.ID)
}

// AddMember attaches a user to a project. Owner or admin only.
func (s *ProjectService) AddMember(ctx context.Context, caller *models.User, projectID, userID, role string) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != caller.ID && !caller.IsAdmin() {
		return models.NewForbiddenError("only the project owner or an admin can add members")
	}
	if role == "" {
		role = string(models.RoleDeveloper)
	}
	if !models.ValidUserRole(role) {
		return models.NewValidationError("unknown role: " + role)
	}

	return s.projects.AddMember(ctx, &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    userID,
		Role:      models.UserRole(role),
	})
}
