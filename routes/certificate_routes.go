package routes

import (
	"github.com/anjiri1684/peer_certify/handlers"
	"github.com/anjiri1684/peer_certify/middleware"
	"github.com/gofiber/fiber/v2"
)

func CertificateRoutes(app *fiber.App, h *handlers.CertificateHandler) {
	api := app.Group("/api/v1")

	certificates := api.Group("/certificates")
	certificates.Post("", middleware.Protected(), middleware.AdminRequired(), h.IssueCertificate)
	certificates.Get("/verify/:id", h.VerifyCertificate)
	certificates.Get("/wallet/:address", h.ListWalletCertificates)
	certificates.Get("/:id", h.GetCertificate)
}
