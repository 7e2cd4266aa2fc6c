package user

import (
	"strconv"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	service UserService
}

func NewUserController(service UserService) *UserController {
	return &UserController{service: service}
}

// List godoc
func (ctrl *UserController) List(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filter := make(map[string]interface{})
	if role := c.Query("role"); role != "" {
		filter["role"] = role
	}

	users, total, err := ctrl.service.ListUsers(c.Context(), filter, page, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"data":  users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Me godoc
func (ctrl *UserController) Me(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	usr, err := ctrl.service.GetUserByID(c.Context(), claims.UserID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": usr})
}

// Get godoc
func (ctrl *UserController) Get(c *fiber.Ctx) error {
	usr, err := ctrl.service.GetUserByID(c.Context(), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": usr})
}

// UpdateProfile godoc
func (ctrl *UserController) UpdateProfile(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.service.UpdateProfile(c.Context(), claims.UserID, updates); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated"})
}

// ChangeRole godoc
func (ctrl *UserController) ChangeRole(c *fiber.Ctx) error {
	var body struct {
		Role models.Role `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.service.ChangeRole(c.Context(), c.Params("id"), body.Role); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role updated"})
}

// Delete godoc
func (ctrl *UserController) Delete(c *fiber.Ctx) error {
	if err := ctrl.service.DeleteUser(c.Context(), c.Params("id")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
