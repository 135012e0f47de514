package server

import (
	"bugtrail/internal/models"
	"bugtrail/internal/standardize"

	"github.com/gofiber/fiber/v2"
)

// Dashboard summarizes the caller's bugs, points, and recent activity.
func (s *Server) Dashboard(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	counts, err := s.bugRepo.CountByStatusForUser(c.UserContext(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	recent, err := s.bugRepo.RecentActivity(c.UserContext(), 20)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	activity := make([]standardize.ActivityView, 0, len(recent))
	for i := range recent {
		activity = append(activity, *standardize.Activity(&recent[i]))
	}

	view := standardize.User(user)
	return models.Respond(c, fiber.StatusOK, "Dashboard retrieved", fiber.Map{
		"bugs": fiber.Map{
			"open":        counts[models.BugOpen],
			"in_progress": counts[models.BugInProgress],
			"resolved":    counts[models.BugResolved],
			"closed":      counts[models.BugClosed],
		},
		"points":          view.Points,
		"recent_activity": activity,
	})
}
