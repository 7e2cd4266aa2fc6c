package chat

import (
	"context"
	"encoding/json"
	"sync"

	"taskpilot/internal/common/models"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// envelope is the framing shared by both directions on the socket.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	connID  string
	user    *models.User
	writeMu sync.Mutex
}

func (c *Client) send(event string, data interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub relays chat events between live sockets. It persists nothing;
// messages reach the database through the HTTP send endpoint.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]bool
	rooms    map[string]map[*Client]bool
	presence PresenceDirectory
	logger   *zap.Logger
}

func NewHub(presence PresenceDirectory, logger *zap.Logger) *Hub {
	return &Hub{
		clients:  map[*Client]bool{},
		rooms:    map[string]map[*Client]bool{},
		presence: presence,
		logger:   logger,
	}
}

func (h *Hub) register(ctx context.Context, client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	first, err := h.presence.Add(ctx, client.userID, client.connID)
	if err != nil {
		h.logger.Warn("presence add failed", zap.Error(err), zap.String("user_id", client.userID))
		return
	}
	if first {
		h.broadcastAll("user_online", onlinePayload(client), client)
	}
}

func (h *Hub) unregister(ctx context.Context, client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	for chatID, room := range h.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
	h.mu.Unlock()

	last, err := h.presence.Remove(ctx, client.userID, client.connID)
	if err != nil {
		h.logger.Warn("presence remove failed", zap.Error(err), zap.String("user_id", client.userID))
		return
	}
	if last {
		h.broadcastAll("user_offline", map[string]string{"userId": client.userID}, client)
	}
}

func (h *Hub) join(client *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[chatID]
	if !ok {
		room = map[*Client]bool{}
		h.rooms[chatID] = room
	}
	room[client] = true
}

func (h *Hub) leave(client *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[chatID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// ToRoom delivers an event to every socket joined to the chat, minus
// the excluded client. Delivery is best-effort.
func (h *Hub) ToRoom(chatID string, exclude *Client, event string, data interface{}) {
	h.mu.RLock()
	room := h.rooms[chatID]
	targets := make([]*Client, 0, len(room))
	for client := range room {
		if client != exclude {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.send(event, data); err != nil {
			h.logger.Debug("socket write failed", zap.Error(err), zap.String("user_id", client.userID))
		}
	}
}

func (h *Hub) broadcastAll(event string, data interface{}, exclude *Client) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client != exclude {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.send(event, data); err != nil {
			h.logger.Debug("socket write failed", zap.Error(err), zap.String("user_id", client.userID))
		}
	}
}

// onlinePayload carries the profile alongside the id so clients can
// render a newly online user without a lookup.
func onlinePayload(c *Client) map[string]interface{} {
	return map[string]interface{}{
		"userId": c.userID,
		"user":   c.user,
	}
}

type roomPayload struct {
	ChatID string `json:"chatId"`
}

type messagePayload struct {
	ChatID  string          `json:"chatId"`
	Message json.RawMessage `json:"message"`
}

type readPayload struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

// Serve runs the read loop for one socket until it closes.
func (h *Hub) Serve(client *Client) {
	ctx := context.Background()
	h.register(ctx, client)
	defer h.unregister(ctx, client)

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			h.logger.Debug("malformed socket frame", zap.Error(err), zap.String("user_id", client.userID))
			continue
		}
		h.handle(client, env)
	}
}

func (h *Hub) handle(client *Client, env envelope) {
	switch env.Event {
	case "join_chat":
		var p roomPayload
		if json.Unmarshal(env.Data, &p) == nil && p.ChatID != "" {
			h.join(client, p.ChatID)
		}
	case "leave_chat":
		var p roomPayload
		if json.Unmarshal(env.Data, &p) == nil && p.ChatID != "" {
			h.leave(client, p.ChatID)
		}
	case "send_message":
		var p messagePayload
		if json.Unmarshal(env.Data, &p) == nil && p.ChatID != "" {
			h.ToRoom(p.ChatID, client, "new_message", map[string]interface{}{
				"chatId":  p.ChatID,
				"message": p.Message,
				"sender":  client.userID,
			})
		}
	case "typing_start":
		var p roomPayload
		if json.Unmarshal(env.Data, &p) == nil && p.ChatID != "" {
			h.ToRoom(p.ChatID, client, "user_typing", map[string]string{
				"chatId": p.ChatID,
				"userId": client.userID,
			})
		}
	case "typing_stop":
		var p roomPayload
		if json.Unmarshal(env.Data, &p) == nil && p.ChatID != "" {
			h.ToRoom(p.ChatID, client, "user_stop_typing", map[string]string{
				"chatId": p.ChatID,
				"userId": client.userID,
			})
		}
	case "message_read":
		var p readPayload
		if json.Unmarshal(env.Data, &p) == nil && p.ChatID != "" {
			h.ToRoom(p.ChatID, client, "message_read_receipt", map[string]string{
				"chatId":    p.ChatID,
				"messageId": p.MessageID,
				"userId":    client.userID,
			})
		}
	default:
		h.logger.Debug("unknown socket event", zap.String("event", env.Event), zap.String("user_id", client.userID))
	}
}
