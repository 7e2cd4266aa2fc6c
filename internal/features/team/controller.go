package team

import (
	"strconv"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TeamController struct {
	service TeamService
}

func NewTeamController(service TeamService) *TeamController {
	return &TeamController{service: service}
}

// Create godoc
func (ctrl *TeamController) Create(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ManagerID   string `json:"manager_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	t, err := ctrl.service.CreateTeam(c.Context(), claims.UserID, body.ManagerID, body.Name, body.Description)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Team created successfully",
		"data":    t,
	})
}

// List godoc
func (ctrl *TeamController) List(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	teams, total, err := ctrl.service.ListTeams(c.Context(), page, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"data":  teams,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get godoc
func (ctrl *TeamController) Get(c *fiber.Ctx) error {
	t, err := ctrl.service.GetTeam(c.Context(), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": t})
}

// AddMember godoc
func (ctrl *TeamController) AddMember(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.service.AddMember(c.Context(), claims.UserID, claims.Role, c.Params("id"), body.UserID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member added"})
}

// RemoveMember godoc
func (ctrl *TeamController) RemoveMember(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.RemoveMember(c.Context(), claims.UserID, claims.Role, c.Params("id"), c.Params("userId")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

// Delete godoc
func (ctrl *TeamController) Delete(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.DeleteTeam(c.Context(), claims.UserID, c.Params("id")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Team deleted"})
}
