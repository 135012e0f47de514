package server

import (
	"bugtrail/internal/models"
	"bugtrail/internal/repository"
	"bugtrail/internal/service"
	"bugtrail/internal/standardize"

	"github.com/gofiber/fiber/v2"
)

// GetBugs lists bugs matching the query filters.
func (s *Server) GetBugs(c *fiber.Ctx) error {
	limit, offset := parsePagination(c, 20, 100)

	filter := repository.BugFilter{
		ProjectID:  c.Query("project_id"),
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		AssigneeID: c.Query("assignee_id"),
		ReporterID: c.Query("reporter_id"),
		Search:     c.Query("search"),
		Limit:      limit,
		Offset:     offset,
	}
	if filter.Status != "" && !models.ValidBugStatus(filter.Status) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("unknown status: "+filter.Status))
	}

	bugs, total, err := s.bugService.List(c.UserContext(), filter)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return models.Respond(c, fiber.StatusOK, "Bugs retrieved", fiber.Map{
		"bugs":   standardize.Bugs(bugs),
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// CreateBug reports a new bug.
func (s *Server) CreateBug(c *fiber.Ctx) error {
	var req service.CreateBugInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	bug, err := s.bugService.Create(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusCreated, "Bug reported", fiber.Map{
		"bug": standardize.Bug(bug),
	})
}

// GetBug returns one bug by native ID or human key.
func (s *Server) GetBug(c *fiber.Ctx) error {
	bug, err := s.bugService.Get(c.UserContext(), c.Params("identifier"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	return models.Respond(c, fiber.StatusOK, "Bug retrieved", fiber.Map{
		"bug": standardize.Bug(bug),
	})
}

// UpdateBug applies field and status changes.
func (s *Server) UpdateBug(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	var req service.UpdateBugInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	bug, err := s.bugService.Update(c.UserContext(), user, c.Params("identifier"), req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Bug updated", fiber.Map{
		"bug": standardize.Bug(bug),
	})
}

// DeleteBug removes a bug. Reporter or admin only.
func (s *Server) DeleteBug(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	if err := s.bugService.Delete(c.UserContext(), user, c.Params("identifier")); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Bug deleted", nil)
}

// GetComments lists a bug's comment thread.
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.bugService.Comments(c.UserContext(), c.Params("identifier"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	views := make([]standardize.CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, *standardize.Comment(&comments[i]))
	}
	return models.Respond(c, fiber.StatusOK, "Comments retrieved", fiber.Map{
		"comments": views,
	})
}

// CreateComment appends a comment to a bug's thread.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	var req service.CommentInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	comment, err := s.bugService.AddComment(c.UserContext(), user, c.Params("identifier"), req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusCreated, "Comment added", fiber.Map{
		"comment": standardize.Comment(comment),
	})
}

// GetBugActivity lists a bug's activity log, newest first.
func (s *Server) GetBugActivity(c *fiber.Ctx) error {
	bug, err := s.bugService.Get(c.UserContext(), c.Params("identifier"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	limit, _ := parsePagination(c, 50, 200)
	entries, err := s.bugRepo.Activity(c.UserContext(), bug.ID, limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	views := make([]standardize.ActivityView, 0, len(entries))
	for i := range entries {
		views = append(views, *standardize.Activity(&entries[i]))
	}
	return models.Respond(c, fiber.StatusOK, "Activity retrieved", fiber.Map{
		"activity": views,
	})
}
