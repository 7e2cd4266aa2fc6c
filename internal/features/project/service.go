package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/user"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TaskCascade deletes every task referencing a project. Satisfied by the
// task repository through an fx adapter.
type TaskCascade interface {
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
}

type CreateProjectInput struct {
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	Deadline       *time.Time           `json:"deadline"`
	TeamMembers    []primitive.ObjectID `json:"team_members"`
	ProjectManager *primitive.ObjectID  `json:"project_manager"`
}

type UpdateProjectInput struct {
	Name           *string              `json:"name"`
	Description    *string              `json:"description"`
	Status         *ProjectStatus       `json:"status"`
	Deadline       *time.Time           `json:"deadline"`
	TeamMembers    []primitive.ObjectID `json:"team_members"`
	ProjectManager *primitive.ObjectID  `json:"project_manager"`
}

type ProjectService interface {
	// Authorize is the resource-level gate behind the role middleware:
	// admins always pass, managers and members must belong to the project.
	Authorize(ctx context.Context, userID string, role models.Role, projectID string) (*Project, error)

	CreateProject(ctx context.Context, actorID string, role models.Role, input CreateProjectInput) (*Project, error)
	GetProject(ctx context.Context, userID string, role models.Role, id string) (*Project, error)
	ListProjects(ctx context.Context, userID string, role models.Role, page, limit int64) ([]Project, int64, error)
	UpdateProject(ctx context.Context, actorID string, role models.Role, id string, input UpdateProjectInput) (*Project, error)
	DeleteProject(ctx context.Context, actorID string, role models.Role, id string) error

	AddComment(ctx context.Context, actorID string, role models.Role, id, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actorID string, role models.Role, id, commentID string) error
	AddAttachment(ctx context.Context, actorID string, role models.Role, id string, attachment models.Attachment) error
	DeleteAttachment(ctx context.Context, actorID string, role models.Role, id, attachmentID string) error
}

type ProjectServiceImpl struct {
	ProjectRepo ProjectRepository
	Tasks       TaskCascade
	UserRepo    user.UserRepository
	Dispatcher  notification.Dispatcher
	Logger      *zap.Logger
}

func NewProjectService(projectRepo ProjectRepository, tasks TaskCascade, userRepo user.UserRepository, dispatcher notification.Dispatcher, logger *zap.Logger) ProjectService {
	return &ProjectServiceImpl{
		ProjectRepo: projectRepo,
		Tasks:       tasks,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	}
}

func (s *ProjectServiceImpl) Authorize(ctx context.Context, userID string, role models.Role, projectID string) (*Project, error) {
	p, err := s.ProjectRepo.FindByID(ctx, projectID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("project: %w", apperr.ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	if role == models.RoleAdmin {
		return p, nil
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}
	if p.IsManagedBy(oid) || p.HasMember(oid) {
		return p, nil
	}
	return nil, fmt.Errorf("no access to this project: %w", apperr.ErrForbidden)
}

func (s *ProjectServiceImpl) CreateProject(ctx context.Context, actorID string, role models.Role, input CreateProjectInput) (*Project, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("project name required: %w", apperr.ErrValidation)
	}

	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
	}

	manager := input.ProjectManager
	if manager == nil && role == models.RoleManager {
		manager = &actorOID
	}

	p := &Project{
		Name:           input.Name,
		Description:    input.Description,
		Status:         StatusNotStarted,
		Deadline:       input.Deadline,
		TeamMembers:    input.TeamMembers,
		ProjectManager: manager,
		CreatedBy:      actorOID,
	}
	if p.TeamMembers == nil {
		p.TeamMembers = []primitive.ObjectID{}
	}

	if err := s.ProjectRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	actor := s.actorRef(ctx, actorOID)
	info := projectInfo(p)
	go s.Dispatcher.ProjectCreated(context.Background(), actor, info)

	return p, nil
}

func (s *ProjectServiceImpl) GetProject(ctx context.Context, userID string, role models.Role, id string) (*Project, error) {
	return s.Authorize(ctx, userID, role, id)
}

func (s *ProjectServiceImpl) ListProjects(ctx context.Context, userID string, role models.Role, page, limit int64) ([]Project, int64, error) {
	filter := bson.M{}
	if role != models.RoleAdmin {
		oid, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
		}
		filter = bson.M{"$or": []bson.M{
			{"project_manager": oid},
			{"team_members": oid},
		}}
	}
	offset := (page - 1) * limit
	return s.ProjectRepo.List(ctx, filter, limit, offset)
}

func (s *ProjectServiceImpl) UpdateProject(ctx context.Context, actorID string, role models.Role, id string, input UpdateProjectInput) (*Project, error) {
	if role == models.RoleTeamMember {
		return nil, fmt.Errorf("only managers can update projects: %w", apperr.ErrForbidden)
	}

	p, err := s.Authorize(ctx, actorID, role, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	completed := false
	if input.Name != nil && *input.Name != "" {
		set["name"] = *input.Name
		p.Name = *input.Name
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("invalid status %q: %w", *input.Status, apperr.ErrValidation)
		}
		set["status"] = *input.Status
		completed = *input.Status == StatusCompleted && p.Status != StatusCompleted
		p.Status = *input.Status
	}
	if input.Deadline != nil {
		set["deadline"] = *input.Deadline
		p.Deadline = input.Deadline
	}
	if input.TeamMembers != nil {
		set["team_members"] = input.TeamMembers
		p.TeamMembers = input.TeamMembers
	}
	if input.ProjectManager != nil {
		set["project_manager"] = *input.ProjectManager
		p.ProjectManager = input.ProjectManager
	}

	if len(set) == 0 {
		return p, nil
	}

	if err := s.ProjectRepo.Update(ctx, p.ID, set); err != nil {
		return nil, err
	}

	actorOID, _ := primitive.ObjectIDFromHex(actorID)
	actor := s.actorRef(ctx, actorOID)
	info := projectInfo(p)
	if completed {
		go s.Dispatcher.ProjectCompleted(context.Background(), actor, info)
	} else {
		go s.Dispatcher.ProjectUpdated(context.Background(), actor, info)
	}

	return p, nil
}

// DeleteProject removes the project and then its tasks. The two deletes
// are separate operations; a concurrent reader can observe the interim
// state and a failed cascade leaves orphaned tasks behind.
func (s *ProjectServiceImpl) DeleteProject(ctx context.Context, actorID string, role models.Role, id string) error {
	if role == models.RoleTeamMember {
		return fmt.Errorf("only managers can delete projects: %w", apperr.ErrForbidden)
	}

	p, err := s.Authorize(ctx, actorID, role, id)
	if err != nil {
		return err
	}

	if err := s.ProjectRepo.Delete(ctx, p.ID); err != nil {
		return err
	}
	if err := s.Tasks.DeleteByProject(ctx, p.ID); err != nil {
		s.Logger.Error("task cascade delete failed", zap.Error(err), zap.String("project_id", id))
	}

	actorOID, _ := primitive.ObjectIDFromHex(actorID)
	actor := s.actorRef(ctx, actorOID)
	go s.Dispatcher.ProjectDeleted(context.Background(), actor, projectInfo(p), role == models.RoleManager)

	return nil
}

func (s *ProjectServiceImpl) AddComment(ctx context.Context, actorID string, role models.Role, id, text string) (*models.Comment, error) {
	if text == "" {
		return nil, fmt.Errorf("comment text required: %w", apperr.ErrValidation)
	}

	p, err := s.Authorize(ctx, actorID, role, id)
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
	if err := s.ProjectRepo.AddComment(ctx, p.ID, comment); err != nil {
		return nil, err
	}

	actor := s.actorRef(ctx, actorOID)
	go s.Dispatcher.ProjectCommentAdded(context.Background(), actor, projectInfo(p))

	return &comment, nil
}

func (s *ProjectServiceImpl) DeleteComment(ctx context.Context, actorID string, role models.Role, id, commentID string) error {
	p, err := s.Authorize(ctx, actorID, role, id)
	if err != nil {
		return err
	}

	commentOID, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return fmt.Errorf("invalid comment id: %w", apperr.ErrValidation)
	}

	actorOID, _ := primitive.ObjectIDFromHex(actorID)
	for _, c := range p.Comments {
		if c.ID == commentOID {
			// Authors delete their own comments; managers and admins any.
			if c.Author != actorOID && role != models.RoleAdmin && !p.IsManagedBy(actorOID) {
				return fmt.Errorf("not the comment author: %w", apperr.ErrForbidden)
			}
			return s.ProjectRepo.RemoveComment(ctx, p.ID, commentOID)
		}
	}
	return fmt.Errorf("comment: %w", apperr.ErrNotFound)
}

func (s *ProjectServiceImpl) AddAttachment(ctx context.Context, actorID string, role models.Role, id string, attachment models.Attachment) error {
	p, err := s.Authorize(ctx, actorID, role, id)
	if err != nil {
		return err
	}

	if err := s.ProjectRepo.AddAttachment(ctx, p.ID, attachment); err != nil {
		return err
	}

	actor := s.actorRef(ctx, attachment.UploadedBy)
	go s.Dispatcher.ProjectAttachmentAdded(context.Background(), actor, projectInfo(p))

	return nil
}

func (s *ProjectServiceImpl) DeleteAttachment(ctx context.Context, actorID string, role models.Role, id, attachmentID string) error {
	p, err := s.Authorize(ctx, actorID, role, id)
	if err != nil {
		return err
	}

	attachmentOID, err := primitive.ObjectIDFromHex(attachmentID)
	if err != nil {
		return fmt.Errorf("invalid attachment id: %w", apperr.ErrValidation)
	}

	actorOID, _ := primitive.ObjectIDFromHex(actorID)
	for _, a := range p.Attachments {
		if a.ID == attachmentOID {
			if a.UploadedBy != actorOID && role != models.RoleAdmin && !p.IsManagedBy(actorOID) {
				return fmt.Errorf("not the uploader: %w", apperr.ErrForbidden)
			}
			return s.ProjectRepo.RemoveAttachment(ctx, p.ID, attachmentOID)
		}
	}
	return fmt.Errorf("attachment: %w", apperr.ErrNotFound)
}

func (s *ProjectServiceImpl) actorRef(ctx context.Context, actorOID primitive.ObjectID) notification.Actor {
	actor := notification.Actor{ID: actorOID}
	if usr, err := s.UserRepo.FindByID(ctx, actorOID.Hex()); err == nil {
		actor.Name = usr.Name
	}
	return actor
}

func projectInfo(p *Project) notification.ProjectInfo {
	return notification.ProjectInfo{
		ID:          p.ID,
		Name:        p.Name,
		ManagerID:   p.ProjectManager,
		TeamMembers: p.TeamMembers,
	}
}
