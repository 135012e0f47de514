package server

import (
	"strconv"

	"bugtrail/internal/models"
	"bugtrail/internal/service"
	"bugtrail/internal/standardize"

	"github.com/gofiber/fiber/v2"
)

// LinkRepo attaches a GitHub repository to a bug.
func (s *Server) LinkRepo(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	var req service.LinkRepoInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	bug, err := s.githubService.LinkRepo(c.UserContext(), actor, c.Params("bugId"), req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Repository linked", fiber.Map{
		"bug": standardize.Bug(bug),
	})
}

// RecordFork records a fork made to work on a bug.
func (s *Server) RecordFork(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	var req service.RecordForkInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	fork, err := s.githubService.RecordFork(c.UserContext(), actor, c.Params("bugId"), req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusCreated, "Fork recorded", fiber.Map{
		"fork": standardize.Fork(fork),
	})
}

// RecordPullRequest records a pull request opened against a bug.
func (s *Server) RecordPullRequest(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	var req service.RecordPullRequestInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	pr, err := s.githubService.RecordPullRequest(c.UserContext(), actor, c.Params("bugId"), req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusCreated, "Pull request recorded", fiber.Map{
		"pull_request": standardize.PullRequest(pr),
	})
}

type updatePullRequestRequest struct {
	State string `json:"state"`
}

// UpdatePullRequest transitions a recorded pull request's state.
func (s *Server) UpdatePullRequest(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	number, err := strconv.Atoi(c.Params("prNumber"))
	if err != nil || number <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid pull request number"))
	}

	var req updatePullRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	pr, err := s.githubService.UpdatePullRequest(c.UserContext(), actor, c.Params("bugId"), number, req.State)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Pull request updated", fiber.Map{
		"pull_request": standardize.PullRequest(pr),
	})
}

// GitHubActivity returns a bug's forks and pull requests.
func (s *Server) GitHubActivity(c *fiber.Ctx) error {
	activity, err := s.githubService.Activity(c.UserContext(), c.Params("bugId"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	forks := make([]standardize.ForkView, 0, len(activity.Forks))
	for i := range activity.Forks {
		forks = append(forks, *standardize.Fork(&activity.Forks[i]))
	}
	prs := make([]standardize.PullRequestView, 0, len(activity.PullRequests))
	for i := range activity.PullRequests {
		prs = append(prs, *standardize.PullRequest(&activity.PullRequests[i]))
	}

	return models.Respond(c, fiber.StatusOK, "GitHub activity retrieved", fiber.Map{
		"forks":         forks,
		"pull_requests": prs,
	})
}
