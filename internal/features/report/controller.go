package report

import (
	"fmt"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	service ReportService
}

func NewReportController(service ReportService) *ReportController {
	return &ReportController{service: service}
}

// Export godoc
func (ctrl *ReportController) Export(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	data, filename, err := ctrl.service.ExportWorkbook(c.Context(), claims.UserID, claims.Role)
	if err != nil {
		return apperr.Respond(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}
