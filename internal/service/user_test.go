package service

import (
	"context"
	"testing"

	"bugtrail/internal/models"
	"bugtrail/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_CheckUsername(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	createTestUser(t, db, "taken_name", models.RoleDeveloper)

	available, err := svc.CheckUsername(ctx, "fresh_name")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = svc.CheckUsername(ctx, "taken_name")
	require.NoError(t, err)
	assert.False(t, available)

	_, err = svc.CheckUsername(ctx, "ab")
	assert.Error(t, err)

	_, err = svc.CheckUsername(ctx, "has spaces")
	assert.Error(t, err)

	_, err = svc.CheckUsername(ctx, "admin")
	assert.Error(t, err)
}

func TestUserService_CompleteOnboarding(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	// Fresh account: no username, onboarding incomplete.
	user := &models.User{
		ExternalID: "aB3dE5fG7hJ9kL1mN3pQ5rS7tU9w",
		Email:      "fresh@example.com",
	}
	require.NoError(t, db.Create(user).Error)
	assert.True(t, user.RequiresOnboarding())

	updated, err := svc.CompleteOnboarding(ctx, user.ID, OnboardingInput{
		Username: "fresh_dev",
		Industry: "fintech",
		Role:     "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh_dev", updated.Username)
	assert.Equal(t, models.RoleTester, updated.Role)
	assert.True(t, updated.OnboardingCompleted)
	assert.False(t, updated.RequiresOnboarding())

	// Someone else cannot claim the same username.
	other := &models.User{
		ExternalID: "zY9xW7vU5tS3rQ1pN9mL7kJ5hG3f",
		Email:      "other@example.com",
	}
	require.NoError(t, db.Create(other).Error)

	_, err = svc.CompleteOnboarding(ctx, other.ID, OnboardingInput{Username: "fresh_dev"})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	// Re-onboarding with your own username is idempotent.
	_, err = svc.CompleteOnboarding(ctx, user.ID, OnboardingInput{Username: "fresh_dev"})
	assert.NoError(t, err)

	_, err = svc.CompleteOnboarding(ctx, user.ID, OnboardingInput{Username: "ok_name", Role: "chief"})
	assert.Error(t, err)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()
	user := createTestUser(t, db, "profiled", models.RoleDeveloper)

	name := "New Name"
	phone := "+1 555 0100"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "+1 555 0100", updated.Phone)
	// Untouched fields survive.
	assert.Equal(t, "profiled", updated.Username)
}

func TestUserService_Leaderboard(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	svc := NewUserService(users)
	points := NewPointsService(db)
	ctx := context.Background()

	low := createTestUser(t, db, "low", models.RoleDeveloper)
	high := createTestUser(t, db, "high", models.RoleDeveloper)
	mid := createTestUser(t, db, "mid", models.RoleDeveloper)

	for _, in := range []AwardInput{
		{UserID: low.ID, Reason: models.ReasonCommentHelpful, Points: 5},
		{UserID: high.ID, Reason: models.ReasonBugResolved, Points: 25},
		{UserID: mid.ID, Reason: models.ReasonBugReported, Points: 10},
	} {
		_, err := points.Award(ctx, in)
		require.NoError(t, err)
	}

	board, err := svc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "high", board[0].Username)
	assert.Equal(t, "mid", board[1].Username)
}
