package contact

import (
	"strconv"

	"taskpilot/internal/common/apperr"

	"github.com/gofiber/fiber/v2"
)

type ContactController struct {
	service ContactService
}

func NewContactController(service ContactService) *ContactController {
	return &ContactController{service: service}
}

// Submit godoc
func (ctrl *ContactController) Submit(c *fiber.Ctx) error {
	var body SubmitInput
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	contact, err := ctrl.service.Submit(c.Context(), body)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Message received",
		"data":    contact,
	})
}

// List godoc
func (ctrl *ContactController) List(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	contacts, total, err := ctrl.service.List(c.Context(), c.Query("status"), page, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"data":  contacts,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get godoc
func (ctrl *ContactController) Get(c *fiber.Ctx) error {
	contact, err := ctrl.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": contact})
}

// UpdateStatus godoc
func (ctrl *ContactController) UpdateStatus(c *fiber.Ctx) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.service.UpdateStatus(c.Context(), c.Params("id"), body.Status); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Status updated"})
}

// Delete godoc
func (ctrl *ContactController) Delete(c *fiber.Ctx) error {
	if err := ctrl.service.Delete(c.Context(), c.Params("id")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Contact deleted"})
}
