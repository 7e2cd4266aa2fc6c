package chat

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatType string

const (
	TypeDirect       ChatType = "direct"
	TypeTeam         ChatType = "team"
	TypeAdminManager ChatType = "admin-manager"
)

func (t ChatType) Valid() bool {
	switch t {
	case TypeDirect, TypeTeam, TypeAdminManager:
		return true
	}
	return false
}

// LastMessage is a denormalized snapshot kept on the chat document so
// chat lists render without a second query.
type LastMessage struct {
	Content string             `bson:"content" json:"content"`
	Sender  primitive.ObjectID `bson:"sender" json:"sender"`
	SentAt  time.Time          `bson:"sent_at" json:"sent_at"`
}

type Chat struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ChatID       string               `bson:"chat_id" json:"chat_id"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	ChatType     ChatType             `bson:"chat_type" json:"chat_type"`
	TeamID       *primitive.ObjectID  `bson:"team_id,omitempty" json:"team_id,omitempty"`
	LastMessage  *LastMessage         `bson:"last_message,omitempty" json:"last_message,omitempty"`
	IsActive     bool                 `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the user belongs to the chat.
func (c *Chat) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

type ReadReceipt struct {
	User primitive.ObjectID `bson:"user" json:"user"`
	At   time.Time          `bson:"at" json:"at"`
}

type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    primitive.ObjectID `bson:"chat_id" json:"chat_id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Content   string             `bson:"content" json:"content"`
	ReadBy    []ReadReceipt      `bson:"read_by" json:"read_by"`
	IsDeleted bool               `bson:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
