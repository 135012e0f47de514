package service

import (
	"context"
	"strings"

	"bugtrail/internal/models"
	"bugtrail/internal/repository"
	"bugtrail/internal/validation"
)

// OnboardingInput carries the fields collected during first-run onboarding.
type OnboardingInput struct {
	Username string `json:"username"`
	Industry string `json:"industry"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// ProfileInput carries the mutable profile fields.
type ProfileInput struct {
	Name      *string `json:"name"`
	Industry  *string `json:"industry"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}

// UserService implements onboarding, profile and leaderboard operations.
type UserService struct {
	users repository.UserRepository
}

// NewUserService creates a new user service instance.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// CheckUsername reports whether the username is valid and unclaimed.
func (s *UserService) CheckUsername(ctx context.Context, username string) (bool, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return false, models.NewValidationError(err.Error())
	}

	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	appErr, ok := err.(*models.AppError)
	if ok && appErr.Code == models.CodeNotFound {
		return true, nil
	}
	return false, err
}

// CompleteOnboarding claims a username and records the profile fields
// collected on first run.
func (s *UserService) CompleteOnboarding(ctx context.Context, userID string, in OnboardingInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Role != "" && !models.ValidUserRole(in.Role) {
		return nil, models.NewValidationError("unknown role: " + in.Role)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Usernames have no DB unique index (every fresh account starts empty),
	// so the claim check lives here.
	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing.ID != user.ID {
		return nil, models.NewValidationError("username is already taken")
	}

	user.Username = username
	user.Industry = in.Industry
	user.Phone = in.Phone
	if in.Role != "" {
		user.Role = models.UserRole(in.Role)
	}
	user.OnboardingCompleted = true

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the provided profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Industry != nil {
		user.Industry = *in.Industry
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Leaderboard returns the top users by points.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	return s.users.Leaderboard(ctx, limit)
}
