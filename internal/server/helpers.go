package server

import (
	"strconv"

	"bugtrail/internal/models"

	"github.com/gofiber/fiber/v2"
)

// currentUserID returns the authenticated user ID stored by the auth middleware.
func currentUserID(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(string); ok {
		return uid
	}
	return ""
}

// currentUser loads the authenticated user.
func (s *Server) currentUser(c *fiber.Ctx) (*models.User, error) {
	uid := currentUserID(c)
	if uid == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	return s.userRepo.GetByID(c.UserContext(), uid)
}

// parsePagination reads limit/offset query parameters with sane bounds.
func parsePagination(c *fiber.Ctx, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	// Page-style parameters are accepted as an alternative to raw offsets.
	if raw := c.Query("page"); raw != "" && offset == 0 {
		if v, err := strconv.Atoi(raw); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}
