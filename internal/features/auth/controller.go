package auth

import (
	"taskpilot/internal/common/apperr"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	service AuthService
}

func NewAuthController(service AuthService) *AuthController {
	return &AuthController{service: service}
}

// Register godoc
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var body RegisterInput
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	u, token, err := ctrl.service.Register(c.Context(), body)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registered successfully",
		"token":   token,
		"user":    u,
	})
}

// Login godoc
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	u, token, err := ctrl.service.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  u,
	})
}

// ForgotPassword godoc
func (ctrl *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.service.ForgotPassword(c.Context(), body.Email); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "If that account exists, a reset email has been sent"})
}

// VerifyResetToken godoc
func (ctrl *AuthController) VerifyResetToken(c *fiber.Ctx) error {
	if err := ctrl.service.VerifyResetToken(c.Context(), c.Query("token")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Token is valid"})
}

// ResetPassword godoc
func (ctrl *AuthController) ResetPassword(c *fiber.Ctx) error {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.service.ResetPassword(c.Context(), body.Token, body.Password); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}
