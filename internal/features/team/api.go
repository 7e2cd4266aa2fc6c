package team

import (
	"taskpilot/internal/common/api"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TeamApi struct {
	controller *TeamController
	config     *config.Config
}

func NewTeamApi(controller *TeamController, config *config.Config) api.Route {
	return &TeamApi{
		controller: controller,
		config:     config,
	}
}

func (h *TeamApi) Setup(app *fiber.App) {
	group := app.Group("/api/teams", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", middleware.RequireRoles(models.RoleAdmin), h.controller.Create)
	group.Get("/", middleware.RequireRoles(models.RoleAdmin), h.controller.List)
	group.Get("/:id", h.controller.Get)
	group.Post("/:id/members", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.AddMember)
	group.Delete("/:id/members/:userId", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.RemoveMember)
	group.Delete("/:id", middleware.RequireRoles(models.RoleAdmin), h.controller.Delete)
}
