package task

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskpilot/internal/common/models"
)

type TaskStatus string

const (
	StatusToDo       TaskStatus = "To Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Status      TaskStatus           `bson:"status" json:"status"`
	Priority    TaskPriority         `bson:"priority" json:"priority"`
	DueDate     *time.Time           `bson:"due_date,omitempty" json:"due_date,omitempty"`
	ProjectID   primitive.ObjectID   `bson:"project_id" json:"project_id"`
	Assignees   []primitive.ObjectID `bson:"assignees" json:"assignees"`
	Comments    []models.Comment     `bson:"comments" json:"comments"`
	Attachments []models.Attachment  `bson:"attachments" json:"attachments"`
	CreatedBy   primitive.ObjectID   `bson:"created_by" json:"created_by"`
	// ReminderSentAt marks that the due-soon reminder already went out so
	// the hourly scan does not notify twice for the same deadline.
	ReminderSentAt *time.Time `bson:"reminder_sent_at,omitempty" json:"-"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updated_at"`
}

// IsAssignee reports whether the user appears in the task's assignees.
func (t *Task) IsAssignee(userID primitive.ObjectID) bool {
	for _, a := range t.Assignees {
		if a == userID {
			return true
		}
	}
	return false
}
