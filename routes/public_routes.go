package routes

import (
	"github.com/anjiri1684/peer_certify/handlers"
	ws "github.com/anjiri1684/peer_certify/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App, network *handlers.NetworkHandler) {
	api := app.Group("/api/v1")

	api.Get("/network/status", network.GetNetworkStatus)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws/events", websocket.New(ws.ServeWs))
}
