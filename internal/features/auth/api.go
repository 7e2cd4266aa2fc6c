package auth

import (
	"taskpilot/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
}

func NewAuthApi(controller *AuthController) api.Route {
	return &AuthApi{controller: controller}
}

func (h *AuthApi) Setup(app *fiber.App) {
	group := app.Group("/api/auth")

	group.Post("/register", h.controller.Register)
	group.Post("/login", h.controller.Login)
	group.Post("/forgot-password", h.controller.ForgotPassword)
	group.Get("/verify-reset-token", h.controller.VerifyResetToken)
	group.Post("/reset-password", h.controller.ResetPassword)
}
