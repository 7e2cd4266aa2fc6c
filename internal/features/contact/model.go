package contact

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContactStatus string

const (
	StatusUnread  ContactStatus = "unread"
	StatusRead    ContactStatus = "read"
	StatusReplied ContactStatus = "replied"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusReplied:
		return true
	}
	return false
}

type Contact struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Subject   string             `bson:"subject" json:"subject"`
	Message   string             `bson:"message" json:"message"`
	Status    ContactStatus      `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
