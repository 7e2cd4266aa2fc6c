package project

import (
	"taskpilot/internal/common/api"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ProjectApi struct {
	controller *ProjectController
	config     *config.Config
}

func NewProjectApi(controller *ProjectController, config *config.Config) api.Route {
	return &ProjectApi{
		controller: controller,
		config:     config,
	}
}

func (h *ProjectApi) Setup(app *fiber.App) {
	group := app.Group("/api/projects", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)
	group.Put("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.Update)
	group.Delete("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.Delete)

	group.Post("/:id/comments", h.controller.AddComment)
	group.Delete("/:id/comments/:commentId", h.controller.DeleteComment)
	group.Post("/:id/attachments", h.controller.UploadAttachment)
	group.Delete("/:id/attachments/:attachmentId", h.controller.DeleteAttachment)
}
