package contact

import (
	"taskpilot/internal/common/api"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ContactApi struct {
	controller *ContactController
	config     *config.Config
}

func NewContactApi(controller *ContactController, config *config.Config) api.Route {
	return &ContactApi{
		controller: controller,
		config:     config,
	}
}

func (h *ContactApi) Setup(app *fiber.App) {
	// Submission is the one public write endpoint.
	app.Post("/api/contact", h.controller.Submit)

	group := app.Group("/api/contacts",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.RequireRoles(models.RoleAdmin),
	)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)
	group.Put("/:id/status", h.controller.UpdateStatus)
	group.Delete("/:id", h.controller.Delete)
}
