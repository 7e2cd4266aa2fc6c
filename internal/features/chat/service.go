package chat

import (
	"context"
	"errors"
	"fmt"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/team"
	"taskpilot/internal/features/user"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type ChatService interface {
	// CreateDirectChat finds or creates the direct chat for the pair.
	// Two simultaneous first messages can still race into two chats;
	// the uuid index does not cover the pair.
	CreateDirectChat(ctx context.Context, actorID, otherID string) (*Chat, error)
	// CreateAdminManagerChat finds or creates the escalation channel
	// between one admin and one manager.
	CreateAdminManagerChat(ctx context.Context, actorID string, role models.Role, otherID string) (*Chat, error)
	GetOrCreateTeamChat(ctx context.Context, actorID string, role models.Role, teamID string) (*Chat, error)
	ListChats(ctx context.Context, userID string) ([]Chat, error)
	GetChat(ctx context.Context, userID string, role models.Role, chatID string) (*Chat, error)
	GetMessages(ctx context.Context, userID string, role models.Role, chatID string, page, limit int64) ([]Message, error)
	SendMessage(ctx context.Context, actorID string, role models.Role, chatID, content string) (*Message, error)
	MarkChatAsRead(ctx context.Context, userID string, role models.Role, chatID string) error
	DeleteMessage(ctx context.Context, actorID string, role models.Role, chatID, messageID string) error
	DeleteChat(ctx context.Context, actorID string, role models.Role, chatID string) error
}

type ChatServiceImpl struct {
	ChatRepo    ChatRepository
	MessageRepo MessageRepository
	UserRepo    user.UserRepository
	TeamRepo    team.TeamRepository
	Dispatcher  notification.Dispatcher
	Hub         *Hub
	Logger      *zap.Logger
}

func NewChatService(chatRepo ChatRepository, messageRepo MessageRepository, userRepo user.UserRepository, teamRepo team.TeamRepository, dispatcher notification.Dispatcher, hub *Hub, logger *zap.Logger) ChatService {
	return &ChatServiceImpl{
		ChatRepo:    chatRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		TeamRepo:    teamRepo,
		Dispatcher:  dispatcher,
		Hub:         hub,
		Logger:      logger,
	}
}

const previewRunes = 80

// messagePreview shortens the notification excerpt on a rune boundary
// so multibyte text never gets cut mid-character.
func messagePreview(content string) string {
	r := []rune(content)
	if len(r) <= previewRunes {
		return content
	}
	return string(r[:previewRunes])
}

// authorize loads the chat and checks the user participates in it.
// Admins are not exempt here; chats stay private to their members.
func (s *ChatServiceImpl) authorize(ctx context.Context, userID, chatID string) (*Chat, error) {
	c, err := s.ChatRepo.FindByChatID(ctx, chatID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("chat: %w", apperr.ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}
	if !c.HasParticipant(oid) {
		return nil, fmt.Errorf("not a chat participant: %w", apperr.ErrForbidden)
	}
	return c, nil
}

func (s *ChatServiceImpl) CreateDirectChat(ctx context.Context, actorID, otherID string) (*Chat, error) {
	if actorID == otherID {
		return nil, fmt.Errorf("cannot chat with yourself: %w", apperr.ErrValidation)
	}
	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}
	otherOID, err := primitive.ObjectIDFromHex(otherID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}

	if _, err := s.UserRepo.FindByID(ctx, otherID); errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	existing, err := s.ChatRepo.FindDirect(ctx, actorOID, otherOID)
	if err == nil {
		return existing, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	c := &Chat{
		ChatID:       uuid.NewString(),
		Participants: []primitive.ObjectID{actorOID, otherOID},
		ChatType:     TypeDirect,
	}
	if err := s.ChatRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChatServiceImpl) CreateAdminManagerChat(ctx context.Context, actorID string, role models.Role, otherID string) (*Chat, error) {
	if actorID == otherID {
		return nil, fmt.Errorf("cannot chat with yourself: %w", apperr.ErrValidation)
	}
	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}
	otherOID, err := primitive.ObjectIDFromHex(otherID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}

	other, err := s.UserRepo.FindByID(ctx, otherID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	// One side admin, the other a manager, in either order.
	pairOK := (role == models.RoleAdmin && other.Role == models.RoleManager) ||
		(role == models.RoleManager && other.Role == models.RoleAdmin)
	if !pairOK {
		return nil, fmt.Errorf("admin-manager chats pair an admin with a manager: %w", apperr.ErrValidation)
	}

	existing, err := s.ChatRepo.FindAdminManager(ctx, actorOID, otherOID)
	if err == nil {
		return existing, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	c := &Chat{
		ChatID:       uuid.NewString(),
		Participants: []primitive.ObjectID{actorOID, otherOID},
		ChatType:     TypeAdminManager,
	}
	if err := s.ChatRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChatServiceImpl) GetOrCreateTeamChat(ctx context.Context, actorID string, role models.Role, teamID string) (*Chat, error) {
	t, err := s.TeamRepo.FindByID(ctx, teamID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("team: %w", apperr.ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}
	if role != models.RoleAdmin {
		member := false
		for _, m := range t.Members {
			if m == actorOID {
				member = true
				break
			}
		}
		if !member {
			return nil, fmt.Errorf("not a team member: %w", apperr.ErrForbidden)
		}
	}

	existing, err := s.ChatRepo.FindByTeam(ctx, t.ID)
	if err == nil {
		return existing, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	c := &Chat{
		ChatID:       uuid.NewString(),
		Participants: t.Members,
		ChatType:     TypeTeam,
		TeamID:       &t.ID,
	}
	if err := s.ChatRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChatServiceImpl) ListChats(ctx context.Context, userID string) ([]Chat, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}
	return s.ChatRepo.ListByParticipant(ctx, oid)
}

func (s *ChatServiceImpl) GetChat(ctx context.Context, userID string, role models.Role, chatID string) (*Chat, error) {
	return s.authorize(ctx, userID, chatID)
}

func (s *ChatServiceImpl) GetMessages(ctx context.Context, userID string, role models.Role, chatID string, page, limit int64) ([]Message, error) {
	c, err := s.authorize(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	offset := (page - 1) * limit
	return s.MessageRepo.ListByChat(ctx, c.ID, limit, offset)
}

func (s *ChatServiceImpl) SendMessage(ctx context.Context, actorID string, role models.Role, chatID, content string) (*Message, error) {
	if content == "" {
		return nil, fmt.Errorf("message content required: %w", apperr.ErrValidation)
	}

	c, err := s.authorize(ctx, actorID, chatID)
	if err != nil {
		return nil, err
	}

	actorOID, _ := primitive.ObjectIDFromHex(actorID)
	msg := &Message{
		ChatID:  c.ID,
		Sender:  actorOID,
		Content: content,
	}
	if err := s.MessageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	lm := LastMessage{Content: content, Sender: actorOID, SentAt: msg.CreatedAt}
	if err := s.ChatRepo.SetLastMessage(ctx, c.ID, lm); err != nil {
		s.Logger.Warn("last message snapshot update failed", zap.Error(err), zap.String("chat_id", chatID))
	}

	actor := notification.Actor{ID: actorOID}
	if usr, err := s.UserRepo.FindByID(ctx, actorID); err == nil {
		actor.Name = usr.Name
	}
	go s.Dispatcher.ChatMessage(context.Background(), actor, c.ID, c.Participants, messagePreview(content))

	// Secondary delivery to sockets already in the room.
	s.Hub.ToRoom(chatID, nil, "new_message", map[string]interface{}{
		"chatId":  chatID,
		"message": msg,
	})

	return msg, nil
}

func (s *ChatServiceImpl) MarkChatAsRead(ctx context.Context, userID string, role models.Role, chatID string) error {
	c, err := s.authorize(ctx, userID, chatID)
	if err != nil {
		return err
	}
	oid, _ := primitive.ObjectIDFromHex(userID)
	return s.MessageRepo.MarkRead(ctx, c.ID, oid)
}

func (s *ChatServiceImpl) DeleteMessage(ctx context.Context, actorID string, role models.Role, chatID, messageID string) error {
	if _, err := s.authorize(ctx, actorID, chatID); err != nil {
		return err
	}

	messageOID, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return fmt.Errorf("invalid message id: %w", apperr.ErrValidation)
	}
	actorOID, _ := primitive.ObjectIDFromHex(actorID)

	matched, err := s.MessageRepo.SoftDelete(ctx, messageOID, actorOID)
	if err != nil {
		return err
	}
	if !matched {
		return fmt.Errorf("message not found or not the sender: %w", apperr.ErrForbidden)
	}
	return nil
}

func (s *ChatServiceImpl) DeleteChat(ctx context.Context, actorID string, role models.Role, chatID string) error {
	c, err := s.authorize(ctx, actorID, chatID)
	if err != nil {
		if role == models.RoleAdmin && errors.Is(err, apperr.ErrForbidden) {
			// Admins may retire chats they are not part of.
			c, err = s.ChatRepo.FindByChatID(ctx, chatID)
			if err != nil {
				return err
			}
			return s.ChatRepo.Deactivate(ctx, c.ID)
		}
		return err
	}
	return s.ChatRepo.Deactivate(ctx, c.ID)
}
