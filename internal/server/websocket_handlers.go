package server

import (
	"bugtrail/internal/featureflags"
	"bugtrail/internal/middleware"
	"bugtrail/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ActivityFeedHandler upgrades the connection and streams activity events.
// A bug_id query parameter scopes the feed to one bug; without it the client
// receives the firehose.
func (s *Server) ActivityFeedHandler() fiber.Handler {
	wsHandler := websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		bugID, _ := conn.Locals("bugID").(string)

		client, err := s.hub.Register(userID, bugID, conn)
		if err != nil {
			middleware.Logger.Warn("activity feed connection rejected",
				"user_id", userID, "error", err)
			conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		userID := currentUserID(c)
		if !s.featureFlags.Enabled(featureflags.ActivityFeed, userID) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("activity feed is not enabled for this account"))
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("websocket upgrade required"))
		}
		// Locals survive the upgrade; query params do not.
		c.Locals("bugID", c.Query("bug_id"))
		return wsHandler(c)
	}
}
