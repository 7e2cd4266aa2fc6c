package system

import (
	"taskpilot/internal/common/api"
	"taskpilot/internal/database"

	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
	db *database.MongodbDB
}

func NewHealthApi(db *database.MongodbDB) api.Route {
	return &HealthApi{db: db}
}

func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/api/health", func(c *fiber.Ctx) error {
		status := "ok"
		dbStatus := "ok"
		if err := h.db.Client.Ping(c.Context(), nil); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
		return c.JSON(fiber.Map{
			"status":   status,
			"database": dbStatus,
		})
	})
}
