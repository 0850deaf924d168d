package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/websocket/v2"
)

const playerIDKey = "playerID"

// EnsurePlayerID identifies the caller by the X-Player-ID header, falling back
// to the playerId query parameter for browsers that cannot set headers on a
// WebSocket handshake.
//
// Header and query values alias fasthttp's request buffer, which is reused by
// the next request. The id outlives the request (it seats players and keys
// queues), so it is copied before being stored.
func EnsurePlayerID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if PlayerID(c) != "" {
			return c.Next()
		}

		id := c.Get("X-Player-ID")
		if id == "" {
			id = c.Query("playerId")
		}
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Player ID is required. Please ensure client is properly initialized.",
			})
		}

		c.Locals(playerIDKey, utils.CopyString(id))
		return c.Next()
	}
}

// PlayerID returns the id stored by EnsurePlayerID, or "" when there is none.
func PlayerID(c *fiber.Ctx) string {
	id, _ := c.Locals(playerIDKey).(string)
	return id
}

// SocketPlayerID is PlayerID for an upgraded connection, whose locals were
// copied from the handshake request.
func SocketPlayerID(c *websocket.Conn) string {
	id, _ := c.Locals(playerIDKey).(string)
	return id
}
