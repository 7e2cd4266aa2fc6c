package team

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team invariant: Manager is always present in Members.
type Team struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Manager     primitive.ObjectID   `bson:"manager" json:"manager"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	Admin       primitive.ObjectID   `bson:"admin" json:"admin"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}
