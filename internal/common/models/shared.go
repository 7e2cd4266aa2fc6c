package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTeamMember Role = "team-member"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTeamMember:
		return true
	}
	return false
}

// User is shared across features (auth, team, project, task, notification).
type User struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name     string              `bson:"name" json:"name"`
	Email    string              `bson:"email" json:"email"`
	Password string              `bson:"password" json:"-"`
	Role     Role                `bson:"role" json:"role"`
	TeamID   *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`

	// IsProtected marks bootstrap accounts whose role can never be
	// changed through the API.
	IsProtected bool `bson:"is_protected" json:"is_protected"`

	ResetTokenHash   string     `bson:"reset_token_hash,omitempty" json:"-"`
	ResetTokenExpiry *time.Time `bson:"reset_token_expiry,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Comment is embedded in projects and tasks and addressed by its sub-id.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Attachment is embedded in projects and tasks. The file itself lives on
// disk under the configured upload root; URL is the public path.
type Attachment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FileName    string             `bson:"file_name" json:"file_name"`
	StoredName  string             `bson:"stored_name" json:"stored_name"`
	URL         string             `bson:"url" json:"url"`
	Size        int64              `bson:"size" json:"size"`
	ContentType string             `bson:"content_type" json:"content_type"`
	UploadedBy  primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt  time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}
