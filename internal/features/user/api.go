package user

import (
	"taskpilot/internal/common/api"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
}

func NewUserApi(controller *UserController, config *config.Config) api.Route {
	return &UserApi{
		controller: controller,
		config:     config,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	group := app.Group("/api/users", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/me", h.controller.Me)
	group.Put("/me", h.controller.UpdateProfile)

	group.Get("/", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.List)
	group.Get("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.Get)
	group.Put("/:id/role", middleware.RequireRoles(models.RoleAdmin), h.controller.ChangeRole)
	group.Delete("/:id", middleware.RequireRoles(models.RoleAdmin), h.controller.Delete)
}
