package report

import (
	"taskpilot/internal/common/api"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	controller *ReportController
	config     *config.Config
}

func NewReportApi(controller *ReportController, config *config.Config) api.Route {
	return &ReportApi{
		controller: controller,
		config:     config,
	}
}

func (h *ReportApi) Setup(app *fiber.App) {
	group := app.Group("/api/reports", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/projects.xlsx", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.Export)
}
