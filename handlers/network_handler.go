package handlers

import (
	"github.com/anjiri1684/peer_certify/services"
	"github.com/gofiber/fiber/v2"
)

type NetworkHandler struct {
	monitor *services.NetworkMonitor
}

func NewNetworkHandler(monitor *services.NetworkMonitor) *NetworkHandler {
	return &NetworkHandler{monitor: monitor}
}

func (h *NetworkHandler) GetNetworkStatus(c *fiber.Ctx) error {
	return c.JSON(h.monitor.CurrentStatus())
}
