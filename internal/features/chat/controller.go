package chat

import (
	"strconv"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ChatController struct {
	service ChatService
}

func NewChatController(service ChatService) *ChatController {
	return &ChatController{service: service}
}

// CreateDirect godoc
func (ctrl *ChatController) CreateDirect(c *fiber.Ctx) error {
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

	chat, err := ctrl.service.CreateDirectChat(c.Context(), claims.UserID, body.UserID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": chat})
}

// AdminManager godoc
func (ctrl *ChatController) AdminManager(c *fiber.Ctx) error {
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

	chat, err := ctrl.service.CreateAdminManagerChat(c.Context(), claims.UserID, claims.Role, body.UserID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": chat})
}

// TeamChat godoc
func (ctrl *ChatController) TeamChat(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	chat, err := ctrl.service.GetOrCreateTeamChat(c.Context(), claims.UserID, claims.Role, c.Params("teamId"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": chat})
}

// List godoc
func (ctrl *ChatController) List(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	chats, err := ctrl.service.ListChats(c.Context(), claims.UserID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": chats})
}

// Get godoc
func (ctrl *ChatController) Get(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	chat, err := ctrl.service.GetChat(c.Context(), claims.UserID, claims.Role, c.Params("chatId"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"data": chat})
}

// Messages godoc
func (ctrl *ChatController) Messages(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	messages, err := ctrl.service.GetMessages(c.Context(), claims.UserID, claims.Role, c.Params("chatId"), page, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"data":  messages,
		"page":  page,
		"limit": limit,
	})
}

// Send godoc
func (ctrl *ChatController) Send(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	msg, err := ctrl.service.SendMessage(c.Context(), claims.UserID, claims.Role, c.Params("chatId"), body.Content)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": msg})
}

// MarkRead godoc
func (ctrl *ChatController) MarkRead(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.MarkChatAsRead(c.Context(), claims.UserID, claims.Role, c.Params("chatId")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Chat marked as read"})
}

// DeleteMessage godoc
func (ctrl *ChatController) DeleteMessage(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.DeleteMessage(c.Context(), claims.UserID, claims.Role, c.Params("chatId"), c.Params("messageId")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

// Delete godoc
func (ctrl *ChatController) Delete(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.service.DeleteChat(c.Context(), claims.UserID, claims.Role, c.Params("chatId")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Chat deleted"})
}

type PresenceController struct {
	presence PresenceDirectory
}

func NewPresenceController(presence PresenceDirectory) *PresenceController {
	return &PresenceController{presence: presence}
}

// Online godoc
func (ctrl *PresenceController) Online(c *fiber.Ctx) error {
	users, err := ctrl.presence.Snapshot(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	if users == nil {
		users = []string{}
	}
	return c.JSON(fiber.Map{"data": users})
}
