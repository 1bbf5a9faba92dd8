package routes

import (
	"github.com/anjiri1684/peer_certify/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", handlers.LoginUser)
}
