package chat

import (
	"taskpilot/internal/common/api"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type ChatApi struct {
	controller *ChatController
	presence   *PresenceController
	socket     *SocketHandler
	config     *config.Config
}

func NewChatApi(controller *ChatController, presence *PresenceController, socket *SocketHandler, config *config.Config) api.Route {
	return &ChatApi{
		controller: controller,
		presence:   presence,
		socket:     socket,
		config:     config,
	}
}

func (h *ChatApi) Setup(app *fiber.App) {
	app.Get("/api/ws/chat", h.socket.Upgrade, websocket.New(h.socket.Handle))

	group := app.Group("/api/chats", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/direct", h.controller.CreateDirect)
	group.Post("/admin-manager", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.controller.AdminManager)
	group.Get("/team/:teamId", h.controller.TeamChat)
	group.Get("/", h.controller.List)
	group.Get("/online", h.presence.Online)
	group.Get("/:chatId", h.controller.Get)
	group.Delete("/:chatId", h.controller.Delete)
	group.Get("/:chatId/messages", h.controller.Messages)
	group.Post("/:chatId/messages", h.controller.Send)
	group.Post("/:chatId/read", h.controller.MarkRead)
	group.Delete("/:chatId/messages/:messageId", h.controller.DeleteMessage)
}
