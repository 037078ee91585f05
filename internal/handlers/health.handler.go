package handlers

import (
	"pms/config"
	"pms/internal/services"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, config config.Config, locks *services.ReservationLockService) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"version":     config.GeneralVersion,
			"service":     "pms_engine",
			"activeLocks": locks.ActiveLocks(),
		})
	})
}
