package server

import (
	"bugtrail/internal/models"
	"bugtrail/internal/service"
	"bugtrail/internal/standardize"

	"github.com/gofiber/fiber/v2"
)

type checkUsernameRequest struct {
	Username string `json:"username"`
}

// CheckUsername reports whether a username is valid and available.
func (s *Server) CheckUsername(c *fiber.Ctx) error {
	var req checkUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	available, err := s.userService.CheckUsername(c.UserContext(), req.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Username checked", fiber.Map{
		"username":  req.Username,
		"available": available,
	})
}

// CompleteOnboarding claims a username and records first-run profile fields.
func (s *Server) CompleteOnboarding(c *fiber.Ctx) error {
	var req service.OnboardingInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	user, err := s.userService.CompleteOnboarding(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Onboarding completed", fiber.Map{
		"user": standardize.User(user),
	})
}

// UpdateProfile applies profile changes for the authenticated user.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req service.ProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Profile updated", fiber.Map{
		"user": standardize.User(user),
	})
}

// Leaderboard returns the top users by points.
func (s *Server) Leaderboard(c *fiber.Ctx) error {
	limit, _ := parsePagination(c, 10, 100)

	users, err := s.userService.Leaderboard(c.UserContext(), limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return models.Respond(c, fiber.StatusOK, "Leaderboard retrieved", fiber.Map{
		"leaderboard": standardize.Users(users),
	})
}

type awardPointsRequest struct {
	UserID string `json:"user_id"`
	BugID  string `json:"bug_id"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

// AwardPoints applies a manual award. Admins may award anyone for any reason;
// other callers may only grant bug-scoped contribution bonuses, which the
// dedup ledger caps at one per bug.
func (s *Server) AwardPoints(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	var req awardPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	if req.UserID == "" {
		req.UserID = actor.ID
	}

	if !actor.IsAdmin() {
		if req.Reason != string(models.ReasonContribution) || req.BugID == "" {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("only admins can award points outside bug contributions"))
		}
	}

	// Identifiers may arrive as native IDs or external/key forms.
	target, err := s.userRepo.Resolve(c.UserContext(), req.UserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	bugID := ""
	if req.BugID != "" {
		bug, err := s.bugRepo.Resolve(c.UserContext(), req.BugID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusNotFound, err)
		}
		bugID = bug.ID
	}

	entry, err := s.pointsService.Award(c.UserContext(), service.AwardInput{
		UserID: target.ID,
		BugID:  bugID,
		Reason: models.AwardReason(req.Reason),
		Points: req.Points,
		Note:   req.Note,
	})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Points awarded", fiber.Map{
		"entry":     standardize.PointsEntry(entry),
		"new_total": entry.NewTotal,
	})
}

// PointsHistory returns the caller's ledger history, newest first.
func (s *Server) PointsHistory(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	limit, offset := parsePagination(c, 20, 100)
	entries, total, err := s.pointsRepo.History(c.UserContext(), user.ID, limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return models.Respond(c, fiber.StatusOK, "Points history retrieved", fiber.Map{
		"entries":      standardize.PointsEntries(entries),
		"total":        total,
		"points_total": user.PointsTotal,
	})
}
