package project

import (
	"strconv"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/features/upload"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectController struct {
	service ProjectService
	storage upload.Storage
}

func NewProjectController(service ProjectService, storage upload.Storage) *ProjectController {
	return &ProjectController{service: service, storage: storage}
}

// Create godoc
func (ctrl *ProjectController) Create(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body CreateProjectInput
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	p, err := ctrl.service.CreateProject(c.Context(), claims.UserID, claims.Role, body)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Project created successfully",
		"data":    p,
	})
}

// List godoc
func (ctrl *ProjectController) List(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	projects, total, err := ctrl.service.ListProjects(c.Context(), claims.UserID, claims.Role, page, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"data":  projects,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get godoc
func (ctrl *ProjectController) Get(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	p, err := ctrl.service.GetProject(c.Context(), claims.UserID, claims.Role, c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": p})
}

// Update godoc
func (ctrl *ProjectController) Update(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body UpdateProjectInput
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	p, err := ctrl.service.UpdateProject(c.Context(), claims.UserID, claims.Role, c.Params("id"), body)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Project updated successfully",
		"data":    p,
	})
}

// Delete godoc
func (ctrl *ProjectController) Delete(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.DeleteProject(c.Context(), claims.UserID, claims.Role, c.Params("id")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Project deleted"})
}

// AddComment godoc
func (ctrl *ProjectController) AddComment(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	comment, err := ctrl.service.AddComment(c.Context(), claims.UserID, claims.Role, c.Params("id"), body.Text)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Comment added",
		"data":    comment,
	})
}

// DeleteComment godoc
func (ctrl *ProjectController) DeleteComment(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.DeleteComment(c.Context(), claims.UserID, claims.Role, c.Params("id"), c.Params("commentId")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// UploadAttachment godoc
func (ctrl *ProjectController) UploadAttachment(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File is required"})
	}

	uploaderOID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	attachment, err := ctrl.storage.Save(c, file, uploaderOID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	if err := ctrl.service.AddAttachment(c.Context(), claims.UserID, claims.Role, c.Params("id"), attachment); err != nil {
		_ = ctrl.storage.Remove(attachment.StoredName)
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Attachment uploaded",
		"data":    attachment,
	})
}

// DeleteAttachment godoc
func (ctrl *ProjectController) DeleteAttachment(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.DeleteAttachment(c.Context(), claims.UserID, claims.Role, c.Params("id"), c.Params("attachmentId")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Attachment deleted"})
}
