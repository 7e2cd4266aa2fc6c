package upload

import (
	"taskpilot/internal/common/api"
	"taskpilot/internal/config"

	"github.com/gofiber/fiber/v2"
)

type UploadApi struct {
	config *config.Config
}

func NewUploadApi(config *config.Config) api.Route {
	return &UploadApi{config: config}
}

// Setup serves stored files straight off disk. Uploads themselves go
// through the project and task attachment endpoints.
func (h *UploadApi) Setup(app *fiber.App) {
	app.Static("/uploads", h.config.FSPath)
}
