package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade guards the /ws routes: plain HTTP gets 426 and a handshake
// without an identified player gets 401. It must run after EnsurePlayerID.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch {
		case !websocket.IsWebSocketUpgrade(c):
			return fiber.ErrUpgradeRequired
		case PlayerID(c) == "":
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "player ID is required",
			})
		}
		return c.Next()
	}
}
