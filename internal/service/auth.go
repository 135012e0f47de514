package service

import (
	"context"
	"time"

	"bugtrail/internal/models"
	"bugtrail/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionTokenTTL = 7 * 24 * time.Hour

// AuthResult is the outcome of a login or refresh.
type AuthResult struct {
	Token              string
	User               *models.User
	IsNewUser          bool
	RequiresOnboarding bool
}

// AuthService exchanges verified Google identities for application sessions.
type AuthService struct {
	users     repository.UserRepository
	verifier  GoogleVerifier
	jwtSecret string
}

// NewAuthService creates a new auth service instance.
func NewAuthService(users repository.UserRepository, verifier GoogleVerifier, jwtSecret string) *AuthService {
	return &AuthService{users: users, verifier: verifier, jwtSecret: jwtSecret}
}

// Login verifies the Google ID token, finds or creates the matching user and
// issues a session token. The session subject is the native user ID, not the
// Google subject.
func (s *AuthService) Login(ctx context.Context, idToken string) (*AuthResult, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	isNew := false
	user, err := s.users.GetByExternalID(ctx, claims.Subject)
	if err != nil {
		appErr, ok := err.(*models.AppError)
		if !ok || appErr.Code != models.CodeNotFound {
			return nil, err
		}

		user = &models.User{
			ExternalID: claims.Subject,
			Email:      claims.Email,
			Name:       claims.Name,
			AvatarURL:  claims.Picture,
			Role:       models.RoleDeveloper,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		isNew = true
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:              token,
		User:               user,
		IsNewUser:          isNew,
		RequiresOnboarding: user.RequiresOnboarding(),
	}, nil
}

// Refresh issues a fresh session token for an already-authenticated user.
func (s *AuthService) Refresh(ctx context.Context, userID string) (*AuthResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:              token,
		User:               user,
		RequiresOnboarding: user.RequiresOnboarding(),
	}, nil
}

func (s *AuthService) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}
