package server

import (
	"bugtrail/internal/models"
	"bugtrail/internal/standardize"

	"github.com/gofiber/fiber/v2"
)

type googleLoginRequest struct {
	Token string `json:"token"`
}

// GoogleLogin exchanges a Google ID token for an application session.
func (s *Server) GoogleLogin(c *fiber.Ctx) error {
	var req googleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}
	if req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("token is required"))
	}

	result, err := s.authService.Login(c.UserContext(), req.Token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	status := fiber.StatusOK
	message := "Login successful"
	if result.IsNewUser {
		status = fiber.StatusCreated
		message = "Account created"
	}

	return models.Respond(c, status, message, fiber.Map{
		"token":               result.Token,
		"user":                standardize.User(result.User),
		"requires_onboarding": result.RequiresOnboarding,
	})
}

// Me returns the authenticated user's profile.
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}
	return models.Respond(c, fiber.StatusOK, "Profile retrieved", fiber.Map{
		"user":                standardize.User(user),
		"requires_onboarding": user.RequiresOnboarding(),
	})
}

// Refresh issues a fresh session token.
func (s *Server) Refresh(c *fiber.Ctx) error {
	result, err := s.authService.Refresh(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}
	return models.Respond(c, fiber.StatusOK, "Token refreshed", fiber.Map{
		"token":               result.Token,
		"user":                standardize.User(result.User),
		"requires_onboarding": result.RequiresOnboarding,
	})
}
