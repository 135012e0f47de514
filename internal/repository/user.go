package repository

import (
	"context"
	"errors"

	"bugtrail/internal/cache"
	"bugtrail/internal/identifier"
	"bugtrail/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines data access methods for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	// Resolve looks up a user by either identifier format.
	Resolve(ctx context.Context, raw string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Leaderboard(ctx context.Context, limit int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", externalID)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Resolve(ctx context.Context, raw string) (*models.User, error) {
	switch identifier.Classify(raw).Kind {
	case identifier.KindNative:
		return r.GetByID(ctx, raw)
	case identifier.KindExternal:
		return r.GetByExternalID(ctx, raw)
	default:
		return nil, models.NewValidationError("invalid user identifier format")
	}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", email)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", username)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("user with that email already exists")
		}
		return err
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("user with that email already exists")
		}
		return err
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	// Cache the top 100 once and slice; per-limit keys would dodge invalidation.
	var users []models.User
	err := cache.Aside(ctx, cache.LeaderboardKey, &users, cache.LeaderboardTTL, func() error {
		return r.db.WithContext(ctx).
			Order("points_total DESC, created_at ASC").
			Limit(100).
			Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
