package service

import (
	"context"
	"testing"

	"bugtrail/internal/models"
	"bugtrail/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-that-is-long-enough!"

// stubVerifier returns fixed claims or an error.
type stubVerifier struct {
	claims *GoogleClaims
	err    error
}

func (s *stubVerifier) Verify(_ context.Context, _ string) (*GoogleClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func TestAuthService_Login_CreatesUserOnFirstSight(t *testing.T) {
	db := setupTestDB(t)
	verifier := &stubVerifier{claims: &GoogleClaims{
		Subject: "aB3dE5fG7hJ9kL1mN3pQ5rS7tU9w",
		Email:   "new@example.com",
		Name:    "New User",
		Picture: "https://example.com/p.png",
	}}
	svc := NewAuthService(repository.NewUserRepository(db), verifier, testJWTSecret)
	ctx := context.Background()

	result, err := svc.Login(ctx, "some-google-token")
	require.NoError(t, err)

	assert.True(t, result.IsNewUser)
	assert.True(t, result.RequiresOnboarding)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "new@example.com", result.User.Email)
	assert.Equal(t, "aB3dE5fG7hJ9kL1mN3pQ5rS7tU9w", result.User.ExternalID)
	assert.Len(t, result.User.ID, 24)
	assert.Equal(t, models.RoleDeveloper, result.User.Role)

	// The session subject is the native ID, not the Google subject.
	parsed, err := jwt.ParseWithClaims(result.Token, &jwt.RegisteredClaims{}, func(_ *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(*jwt.RegisteredClaims)
	assert.Equal(t, result.User.ID, claims.Subject)
	assert.NotEmpty(t, claims.ID)

	// Second login with the same subject reuses the account.
	again, err := svc.Login(ctx, "some-google-token")
	require.NoError(t, err)
	assert.False(t, again.IsNewUser)
	assert.Equal(t, result.User.ID, again.User.ID)
}

func TestAuthService_Login_RejectsBadToken(t *testing.T) {
	db := setupTestDB(t)
	verifier := &stubVerifier{err: models.NewUnauthorizedError("invalid Google ID token")}
	svc := NewAuthService(repository.NewUserRepository(db), verifier, testJWTSecret)

	result, err := svc.Login(context.Background(), "garbage")
	require.Error(t, err)
	assert.Nil(t, result)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthService_Login_OnboardedUserSkipsOnboarding(t *testing.T) {
	db := setupTestDB(t)
	existing := createTestUser(t, db, "veteran", models.RoleDeveloper)

	verifier := &stubVerifier{claims: &GoogleClaims{
		Subject: existing.ExternalID,
		Email:   existing.Email,
	}}
	svc := NewAuthService(repository.NewUserRepository(db), verifier, testJWTSecret)

	result, err := svc.Login(context.Background(), "token")
	require.NoError(t, err)
	assert.False(t, result.IsNewUser)
	assert.False(t, result.RequiresOnboarding)
}

func TestAuthService_Refresh(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "refresher", models.RoleDeveloper)
	svc := NewAuthService(repository.NewUserRepository(db), &stubVerifier{}, testJWTSecret)

	result, err := svc.Refresh(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)

	_, err = svc.Refresh(context.Background(), models.NewID())
	assert.Error(t, err)
}
