package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	TypeTaskCreated            NotificationType = "TASK_CREATED"
	TypeTaskAssigned           NotificationType = "TASK_ASSIGNED"
	TypeTaskUpdated            NotificationType = "TASK_UPDATED"
	TypeTaskCompleted          NotificationType = "TASK_COMPLETED"
	TypeTaskDeleted            NotificationType = "TASK_DELETED"
	TypeTaskCommentAdded       NotificationType = "TASK_COMMENT_ADDED"
	TypeTaskAttachmentAdded    NotificationType = "TASK_ATTACHMENT_ADDED"
	TypeProjectCreated         NotificationType = "PROJECT_CREATED"
	TypeProjectUpdated         NotificationType = "PROJECT_UPDATED"
	TypeProjectCompleted       NotificationType = "PROJECT_COMPLETED"
	TypeProjectDeleted         NotificationType = "PROJECT_DELETED"
	TypeProjectDeletedByMgr    NotificationType = "PROJECT_DELETED_BY_MANAGER"
	TypeProjectCommentAdded    NotificationType = "PROJECT_COMMENT_ADDED"
	TypeProjectAttachmentAdded NotificationType = "PROJECT_ATTACHMENT_ADDED"
	TypeTeamCreated            NotificationType = "TEAM_CREATED"
	TypeTeamMemberAdded        NotificationType = "TEAM_MEMBER_ADDED"
	TypeTeamMemberRemoved      NotificationType = "TEAM_MEMBER_REMOVED"
	TypeUserRegistered         NotificationType = "USER_REGISTERED"
	TypeContactSubmitted       NotificationType = "CONTACT_SUBMITTED"
	TypePasswordChanged        NotificationType = "PASSWORD_CHANGED"
	TypeDeadlineReminder       NotificationType = "DEADLINE_REMINDER"
	TypeChatMessage            NotificationType = "CHAT_MESSAGE"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Notification documents are written only by the Dispatcher, one per
// (event, recipient) pair. Only is_read/read_at ever change afterwards.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Recipient primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Sender    *primitive.ObjectID `bson:"sender,omitempty" json:"sender,omitempty"`
	Type      NotificationType    `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	Priority  Priority            `bson:"priority" json:"priority"`

	ProjectID *primitive.ObjectID `bson:"project_id,omitempty" json:"project_id,omitempty"`
	TaskID    *primitive.ObjectID `bson:"task_id,omitempty" json:"task_id,omitempty"`
	ContactID *primitive.ObjectID `bson:"contact_id,omitempty" json:"contact_id,omitempty"`
	ChatID    *primitive.ObjectID `bson:"chat_id,omitempty" json:"chat_id,omitempty"`

	IsRead    bool       `bson:"is_read" json:"is_read"`
	ReadAt    *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}
