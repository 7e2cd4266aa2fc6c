package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/project"
	"taskpilot/internal/features/user"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type CreateTaskInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Priority    TaskPriority         `json:"priority"`
	DueDate     *time.Time           `json:"due_date"`
	ProjectID   string               `json:"project_id"`
	Assignees   []primitive.ObjectID `json:"assignees"`
}

type UpdateTaskInput struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *TaskStatus          `json:"status"`
	Priority    *TaskPriority        `json:"priority"`
	DueDate     *time.Time           `json:"due_date"`
	Assignees   []primitive.ObjectID `json:"assignees"`
}

// statusOnly reports whether the update touches nothing but the status.
func (in UpdateTaskInput) statusOnly() bool {
	return in.Title == nil && in.Description == nil && in.Priority == nil &&
		in.DueDate == nil && in.Assignees == nil
}

type TaskService interface {
	CreateTask(ctx context.Context, actorID string, role models.Role, input CreateTaskInput) (*Task, error)
	GetTask(ctx context.Context, userID string, role models.Role, id string) (*Task, error)
	ListProjectTasks(ctx context.Context, userID string, role models.Role, projectID string) ([]Task, error)
	ListMyTasks(ctx context.Context, userID string) ([]Task, error)
	UpdateTask(ctx context.Context, actorID string, role models.Role, id string, input UpdateTaskInput) (*Task, error)
	DeleteTask(ctx context.Context, actorID string, role models.Role, id string) error

	AddComment(ctx context.Context, actorID string, role models.Role, id, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actorID string, role models.Role, id, commentID string) error
	AddAttachment(ctx context.Context, actorID string, role models.Role, id string, attachment models.Attachment) error
	DeleteAttachment(ctx context.Context, actorID string, role models.Role, id, attachmentID string) error
}

type TaskServiceImpl struct {
	TaskRepo   TaskRepository
	Projects   project.ProjectService
	UserRepo   user.UserRepository
	Dispatcher notification.Dispatcher
	Logger     *zap.Logger
}

func NewTaskService(taskRepo TaskRepository, projects project.ProjectService, userRepo user.UserRepository, dispatcher notification.Dispatcher, logger *zap.Logger) TaskService {
	return &TaskServiceImpl{
		TaskRepo:   taskRepo,
		Projects:   projects,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// authorize loads the task and checks access through its parent project.
// Project membership is not enough for team members; they must also be
// assigned to the task itself.
func (s *TaskServiceImpl) authorize(ctx context.Context, userID string, role models.Role, taskID string) (*Task, *project.Project, error) {
	t, err := s.TaskRepo.FindByID(ctx, taskID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, fmt.Errorf("task: %w", apperr.ErrNotFound)
	} else if err != nil {
		return nil, nil, err
	}

	p, err := s.Projects.Authorize(ctx, userID, role, t.ProjectID.Hex())
	if err != nil {
		return nil, nil, err
	}

	if role == models.RoleTeamMember {
		oid, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
		}
		if !t.IsAssignee(oid) {
			return nil, nil, fmt.Errorf("not assigned to this task: %w", apperr.ErrForbidden)
		}
	}
	return t, p, nil
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, actorID string, role models.Role, input CreateTaskInput) (*Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("task title required: %w", apperr.ErrValidation)
	}
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, fmt.Errorf("invalid priority %q: %w", input.Priority, apperr.ErrValidation)
	}

	p, err := s.Projects.Authorize(ctx, actorID, role, input.ProjectID)
	if err != nil {
		return nil, err
	}

	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}

	t := &Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      StatusToDo,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		ProjectID:   p.ID,
		Assignees:   input.Assignees,
		CreatedBy:   actorOID,
	}
	if err := s.TaskRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	actor := s.actorRef(ctx, actorOID)
	go s.Dispatcher.TaskCreated(context.Background(), actor, taskInfo(t), projectInfo(p))

	return t, nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, userID string, role models.Role, id string) (*Task, error) {
	t, _, err := s.authorize(ctx, userID, role, id)
	return t, err
}

func (s *TaskServiceImpl) ListProjectTasks(ctx context.Context, userID string, role models.Role, projectID string) ([]Task, error) {
	p, err := s.Projects.Authorize(ctx, userID, role, projectID)
	if err != nil {
		return nil, err
	}
	return s.TaskRepo.ListByProject(ctx, p.ID)
}

func (s *TaskServiceImpl) ListMyTasks(ctx context.Context, userID string) ([]Task, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}
	return s.TaskRepo.ListByAssignee(ctx, oid)
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, actorID string, role models.Role, id string, input UpdateTaskInput) (*Task, error) {
	// Team members may move a task between statuses but nothing else.
	if role == models.RoleTeamMember && !input.statusOnly() {
		return nil, fmt.Errorf("team members can only change task status: %w", apperr.ErrForbidden)
	}

	t, p, err := s.authorize(ctx, actorID, role, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	completed := false
	if input.Title != nil && *input.Title != "" {
		set["title"] = *input.Title
		t.Title = *input.Title
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("invalid status %q: %w", *input.Status, apperr.ErrValidation)
		}
		set["status"] = *input.Status
		completed = *input.Status == StatusCompleted && t.Status != StatusCompleted
		t.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, fmt.Errorf("invalid priority %q: %w", *input.Priority, apperr.ErrValidation)
		}
		set["priority"] = *input.Priority
		t.Priority = *input.Priority
	}
	if input.DueDate != nil {
		set["due_date"] = *input.DueDate
		// A moved deadline re-arms the reminder.
		set["reminder_sent_at"] = nil
		t.DueDate = input.DueDate
	}
	if input.Assignees != nil {
		set["assignees"] = input.Assignees
		t.Assignees = input.Assignees
	}

	if len(set) == 0 {
		return t, nil
	}

	if err := s.TaskRepo.Update(ctx, t.ID, set); err != nil {
		return nil, err
	}

	actorOID, _ := primitive.ObjectIDFromHex(actorID)
	actor := s.actorRef(ctx, actorOID)
	if completed {
		go s.Dispatcher.TaskCompleted(context.Background(), actor, taskInfo(t), projectInfo(p))
	} else {
		go s.Dispatcher.TaskUpdated(context.Background(), actor, taskInfo(t), projectInfo(p))
	}

	return t, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, actorID string, role models.Role, id string) error {
	if role == models.RoleTeamMember {
		return fmt.Errorf("only managers can delete tasks: %w", apperr.ErrForbidden)
	}

	t, p, err := s.authorize(ctx, actorID, role, id)
	if err != nil {
		return err
	}

	if err := s.TaskRepo.Delete(ctx, t.ID); err != nil {
		return err
	}

	actorOID, _ := primitive.ObjectIDFromHex(actorID)
	actor := s.actorRef(ctx, actorOID)
	go s.Dispatcher.TaskDeleted(context.Background(), actor, taskInfo(t), projectInfo(p))

	return nil
}

func (s *TaskServiceImpl) AddComment(ctx context.Context, actorID string, role models.Role, id, text string) (*models.Comment, error) {
	if text == "" {
		return nil, fmt.Errorf("comment text required: %w", apperr.ErrValidation)
	}

	t, p, err := s.authorize(ctx, actorID, role, id)
	if err != nil {
		return nil, err
	}

	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		Author:    actorOID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.TaskRepo.AddComment(ctx, t.ID, comment); err != nil {
		return nil, err
	}

	actor := s.actorRef(ctx, actorOID)
	go s.Dispatcher.TaskCommentAdded(context.Background(), actor, taskInfo(t), projectInfo(p))

	return &comment, nil
}

func (s *TaskServiceImpl) DeleteComment(ctx context.Context, actorID string, role models.Role, id, commentID string) error {
	t, p, err := s.authorize(ctx, actorID, role, id)
	if err != nil {
		return err
	}

	commentOID, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return fmt.Errorf("invalid comment id: %w", apperr.ErrValidation)
	}

	actorOID, _ := primitive.ObjectIDFromHex(actorID)
	for _, c := range t.Comments {
		if c.ID == commentOID {
			if c.Author != actorOID && role != models.RoleAdmin && !p.IsManagedBy(actorOID) {
				return fmt.Errorf("not the comment author: %w", apperr.ErrForbidden)
			}
			return s.TaskRepo.RemoveComment(ctx, t.ID, commentOID)
		}
	}
	return fmt.Errorf("comment: %w", apperr.ErrNotFound)
}

func (s *TaskServiceImpl) AddAttachment(ctx context.Context, actorID string, role models.Role, id string, attachment models.Attachment) error {
	t, p, err := s.authorize(ctx, actorID, role, id)
	if err != nil {
		return err
	}

	if err := s.TaskRepo.AddAttachment(ctx, t.ID, attachment); err != nil {
		return err
	}

	actor := s.actorRef(ctx, attachment.UploadedBy)
	go s.Dispatcher.TaskAttachmentAdded(context.Background(), actor, taskInfo(t), projectInfo(p))

	return nil
}

func (s *TaskServiceImpl) DeleteAttachment(ctx context.Context, actorID string, role models.Role, id, attachmentID string) error {
	t, p, err := s.authorize(ctx, actorID, role, id)
	if err != nil {
		return err
	}

	attachmentOID, err := primitive.ObjectIDFromHex(attachmentID)
	if err != nil {
		return fmt.Errorf("invalid attachment id: %w", apperr.ErrValidation)
	}

	actorOID, _ := primitive.ObjectIDFromHex(actorID)
	for _, a := range t.Attachments {
		if a.ID == attachmentOID {
			if a.UploadedBy != actorOID && role != models.RoleAdmin && !p.IsManagedBy(actorOID) {
				return fmt.Errorf("not the uploader: %w", apperr.ErrForbidden)
			}
			return s.TaskRepo.RemoveAttachment(ctx, t.ID, attachmentOID)
		}
	}
	return fmt.Errorf("attachment: %w", apperr.ErrNotFound)
}

func (s *TaskServiceImpl) actorRef(ctx context.Context, actorOID primitive.ObjectID) notification.Actor {
	actor := notification.Actor{ID: actorOID}
	if usr, err := s.UserRepo.FindByID(ctx, actorOID.Hex()); err == nil {
		actor.Name = usr.Name
	}
	return actor
}

func taskInfo(t *Task) notification.TaskInfo {
	return notification.TaskInfo{
		ID:        t.ID,
		Title:     t.Title,
		ProjectID: t.ProjectID,
		Assignees: t.Assignees,
	}
}

func projectInfo(p *project.Project) notification.ProjectInfo {
	return notification.ProjectInfo{
		ID:          p.ID,
		Name:        p.Name,
		ManagerID:   p.ProjectManager,
		TeamMembers: p.TeamMembers,
	}
}
