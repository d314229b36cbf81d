package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-week-planner/utils/response"
)

// HealthChecker is the part of database.Storage the health endpoint needs
type HealthChecker interface {
	HealthCheck() error
}

// HandleCheckHealth reports whether the backing store answers
func HandleCheckHealth(c *fiber.Ctx, store HealthChecker) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database is not reachable")
	}
	return response.Success(c, fiber.Map{"status": "ok"})
}
