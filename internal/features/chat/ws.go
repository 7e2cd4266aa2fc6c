package chat

import (
	"context"
	"strings"

	"taskpilot/internal/features/user"
	"taskpilot/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SocketHandler upgrades authenticated clients and hands the socket to
// the hub. The token travels in the query string or, for browser
// clients that cannot set headers, as the websocket subprotocol.
type SocketHandler struct {
	hub   *Hub
	users user.UserRepository
}

func NewSocketHandler(hub *Hub, users user.UserRepository) *SocketHandler {
	return &SocketHandler{hub: hub, users: users}
}

func socketToken(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	proto := c.Get("Sec-WebSocket-Protocol")
	if proto == "" {
		return ""
	}
	// Clients send "bearer, <token>"; take the last element.
	parts := strings.Split(proto, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// Upgrade authenticates the handshake before the protocol switch.
func (h *SocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	claims, err := utils.ValidateToken(socketToken(c))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	c.Locals("userId", claims.UserID)
	return c.Next()
}

func (h *SocketHandler) Handle(conn *websocket.Conn) {
	userID, _ := conn.Locals("userId").(string)
	if userID == "" {
		conn.Close()
		return
	}

	// The profile rides along on the online announcement.
	profile, err := h.users.FindByID(context.Background(), userID)
	if err != nil {
		conn.Close()
		return
	}

	client := &Client{
		conn:   conn,
		userID: userID,
		connID: uuid.NewString(),
		user:   profile,
	}
	h.hub.Serve(client)
}
