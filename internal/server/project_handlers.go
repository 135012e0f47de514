package server

import (
	"bugtrail/internal/models"
	"bugtrail/internal/service"
	"bugtrail/internal/standardize"

	"github.com/gofiber/fiber/v2"
)

// GetProjects lists the caller's projects.
func (s *Server) GetProjects(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	projects, err := s.projectService.List(c.UserContext(), user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return models.Respond(c, fiber.StatusOK, "Projects retrieved", fiber.Map{
		"projects": standardize.Projects(projects),
	})
}

// CreateProject creates a project owned by the caller.
func (s *Server) CreateProject(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	var req service.CreateProjectInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	project, err := s.projectService.Create(c.UserContext(), user, req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusCreated, "Project created", fiber.Map{
		"project": standardize.Project(project),
	})
}

// GetProject returns one project the caller can see.
func (s *Server) GetProject(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	project, err := s.projectService.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	return models.Respond(c, fiber.StatusOK, "Project retrieved", fiber.Map{
		"project": standardize.Project(project),
	})
}

type updateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// UpdateProject changes project fields. Owner or admin only.
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	var req updateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	project, err := s.projectService.Update(c.UserContext(), user, c.Params("id"),
		req.Name, req.Description, req.Status)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Project updated", fiber.Map{
		"project": standardize.Project(project),
	})
}

// DeleteProject removes a project. Owner or admin only.
func (s *Server) DeleteProject(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	if err := s.projectService.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusOK, "Project deleted", nil)
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// AddProjectMember attaches a user to a project. Owner or admin only.
func (s *Server) AddProjectMember(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	member, err := s.userRepo.Resolve(c.UserContext(), req.UserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	if err := s.projectService.AddMember(c.UserContext(), user, c.Params("id"), member.ID, req.Role); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	return models.Respond(c, fiber.StatusCreated, "Member added", nil)
}
