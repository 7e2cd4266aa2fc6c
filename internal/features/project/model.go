package project

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskpilot/internal/common/models"
)

type ProjectStatus string

const (
	StatusNotStarted ProjectStatus = "Not Started"
	StatusPending    ProjectStatus = "Pending"
	StatusInProgress ProjectStatus = "In Progress"
	StatusCompleted  ProjectStatus = "Completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Project struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name           string               `bson:"name" json:"name"`
	Description    string               `bson:"description,omitempty" json:"description,omitempty"`
	Status         ProjectStatus        `bson:"status" json:"status"`
	Deadline       *time.Time           `bson:"deadline,omitempty" json:"deadline,omitempty"`
	TeamMembers    []primitive.ObjectID `bson:"team_members" json:"team_members"`
	ProjectManager *primitive.ObjectID  `bson:"project_manager,omitempty" json:"project_manager,omitempty"`
	Comments       []models.Comment     `bson:"comments" json:"comments"`
	Attachments    []models.Attachment  `bson:"attachments" json:"attachments"`
	CreatedBy      primitive.ObjectID   `bson:"created_by" json:"created_by"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether the user appears in the project's team.
func (p *Project) HasMember(userID primitive.ObjectID) bool {
	for _, m := range p.TeamMembers {
		if m == userID {
			return true
		}
	}
	return false
}

// IsManagedBy reports whether the user is the project's manager.
func (p *Project) IsManagedBy(userID primitive.ObjectID) bool {
	return p.ProjectManager != nil && *p.ProjectManager == userID
}
