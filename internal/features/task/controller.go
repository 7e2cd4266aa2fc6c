package task

import (
	"taskpilot/internal/common/apperr"
	"taskpilot/internal/features/upload"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskController struct {
	service TaskService
	storage upload.Storage
}

func NewTaskController(service TaskService, storage upload.Storage) *TaskController {
	return &TaskController{service: service, storage: storage}
}

// Create godoc
func (ctrl *TaskController) Create(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body CreateTaskInput
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	t, err := ctrl.service.CreateTask(c.Context(), claims.UserID, claims.Role, body)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Task created successfully",
		"data":    t,
	})
}

// ListByProject godoc
func (ctrl *TaskController) ListByProject(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	tasks, err := ctrl.service.ListProjectTasks(c.Context(), claims.UserID, claims.Role, c.Params("projectId"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": tasks})
}

// ListMine godoc
func (ctrl *TaskController) ListMine(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	tasks, err := ctrl.service.ListMyTasks(c.Context(), claims.UserID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": tasks})
}

// Get godoc
func (ctrl *TaskController) Get(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	t, err := ctrl.service.GetTask(c.Context(), claims.UserID, claims.Role, c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": t})
}

// Update godoc
func (ctrl *TaskController) Update(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body UpdateTaskInput
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	t, err := ctrl.service.UpdateTask(c.Context(), claims.UserID, claims.Role, c.Params("id"), body)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Task updated successfully",
		"data":    t,
	})
}

// Delete godoc
func (ctrl *TaskController) Delete(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.DeleteTask(c.Context(), claims.UserID, claims.Role, c.Params("id")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Task deleted"})
}

// AddComment godoc
func (ctrl *TaskController) AddComment(c *fiber.Ctx) error {
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
func (ctrl *TaskController) DeleteComment(c *fiber.Ctx) error {
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
func (ctrl *TaskController) UploadAttachment(c *fiber.Ctx) error {
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
func (ctrl *TaskController) DeleteAttachment(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.DeleteAttachment(c.Context(), claims.UserID, claims.Role, c.Params("id"), c.Params("attachmentId")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Attachment deleted"})
}
