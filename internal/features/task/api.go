package task

import (
	"taskpilot/internal/common/api"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TaskApi struct {
	controller *TaskController
	config     *config.Config
}

func NewTaskApi(controller *TaskController, config *config.Config) api.Route {
	return &TaskApi{
		controller: controller,
		config:     config,
	}
}

func (h *TaskApi) Setup(app *fiber.App) {
	group := app.Group("/api/tasks", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.Create)
	group.Get("/me", h.controller.ListMine)
	group.Get("/project/:projectId", h.controller.ListByProject)
	group.Get("/:id", h.controller.Get)
	group.Put("/:id", h.controller.Update)
	group.Delete("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.Delete)

	group.Post("/:id/comments", h.controller.AddComment)
	group.Delete("/:id/comments/:commentId", h.controller.DeleteComment)
	group.Post("/:id/attachments", h.controller.UploadAttachment)
	group.Delete("/:id/attachments/:attachmentId", h.controller.DeleteAttachment)
}
