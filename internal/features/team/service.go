package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MembershipCleaner removes a departing user from denormalized membership
// lists (project team members, task assignees). Satisfied by the project
// and task repositories through fx adapters.
type MembershipCleaner interface {
	RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error
}

type TeamService interface {
	CreateTeam(ctx context.Context, actorID, managerID, name, description string) (*Team, error)
	GetTeam(ctx context.Context, id string) (*Team, error)
	ListTeams(ctx context.Context, page, limit int64) ([]Team, int64, error)
	AddMember(ctx context.Context, actorID string, actorRole models.Role, teamID, userID string) error
	RemoveMember(ctx context.Context, actorID string, actorRole models.Role, teamID, userID string) error
	DeleteTeam(ctx context.Context, actorID, teamID string) error
}

type TeamServiceImpl struct {
	TeamRepo     TeamRepository
	UserRepo     user.UserRepository
	ProjectClean MembershipCleaner
	TaskClean    MembershipCleaner
	Dispatcher   notification.Dispatcher
	Logger       *zap.Logger
}

type CleanerParams struct {
	Projects MembershipCleaner
	Tasks    MembershipCleaner
}

func NewTeamService(teamRepo TeamRepository, userRepo user.UserRepository, cleaners CleanerParams, dispatcher notification.Dispatcher, logger *zap.Logger) TeamService {
	return &TeamServiceImpl{
		TeamRepo:     teamRepo,
		UserRepo:     userRepo,
		ProjectClean: cleaners.Projects,
		TaskClean:    cleaners.Tasks,
		Dispatcher:   dispatcher,
		Logger:       logger,
	}
}

// transactionUnsupported matches the error a standalone mongod returns
// when a session tries to open a transaction (IllegalOperation, code 20).
// Any other transaction failure is a real write error and must not be
// retried outside the transaction.
func transactionUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 20 {
		return true
	}
	return strings.Contains(err.Error(), "Transaction numbers are only allowed")
}

// CreateTeam enforces the team invariants: unique name, a manager without
// an existing team, and manager membership. The team insert and the
// manager's team_id update run in one transaction when the deployment
// supports sessions; standalone Mongo falls back to sequential writes.
func (s *TeamServiceImpl) CreateTeam(ctx context.Context, actorID, managerID, name, description string) (*Team, error) {
	if name == "" {
		return nil, fmt.Errorf("team name required: %w", apperr.ErrValidation)
	}

	if _, err := s.TeamRepo.FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("team name %q already exists: %w", name, apperr.ErrConflict)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	manager, err := s.UserRepo.FindByID(ctx, managerID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("manager: %w", apperr.ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	if manager.TeamID != nil {
		return nil, fmt.Errorf("manager already belongs to a team: %w", apperr.ErrConflict)
	}

	adminOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, err
	}

	newTeam := &Team{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: description,
		Manager:     manager.ID,
		Members:     []primitive.ObjectID{manager.ID},
		Admin:       adminOID,
	}

	createBoth := func(ctx context.Context) error {
		if err := s.TeamRepo.Create(ctx, newTeam); err != nil {
			return err
		}
		return s.UserRepo.SetTeam(ctx, manager.ID, newTeam.ID)
	}

	if err := s.TeamRepo.WithTransaction(ctx, createBoth); err != nil {
		if !transactionUnsupported(err) {
			return nil, err
		}
		// Standalone deployments reject transactions; redo sequentially
		// and accept the known consistency gap between the two writes.
		s.Logger.Warn("team create transaction unavailable, falling back", zap.Error(err))
		if err := createBoth(ctx); err != nil {
			return nil, err
		}
	}

	admin, aerr := s.UserRepo.FindByID(ctx, actorID)
	actorName := "Administrator"
	if aerr == nil {
		actorName = admin.Name
	}
	go s.Dispatcher.TeamCreated(context.Background(), notification.Actor{ID: adminOID, Name: actorName}, newTeam.Name, manager.ID)

	return newTeam, nil
}

func (s *TeamServiceImpl) GetTeam(ctx context.Context, id string) (*Team, error) {
	t, err := s.TeamRepo.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("team: %w", apperr.ErrNotFound)
	}
	return t, err
}

func (s *TeamServiceImpl) ListTeams(ctx context.Context, page, limit int64) ([]Team, int64, error) {
	offset := (page - 1) * limit
	return s.TeamRepo.List(ctx, limit, offset)
}

// canManage allows admins and the team's own manager.
func (s *TeamServiceImpl) canManage(t *Team, actorID string, actorRole models.Role) bool {
	if actorRole == models.RoleAdmin {
		return true
	}
	return actorRole == models.RoleManager && t.Manager.Hex() == actorID
}

func (s *TeamServiceImpl) AddMember(ctx context.Context, actorID string, actorRole models.Role, teamID, userID string) error {
	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if !s.canManage(t, actorID, actorRole) {
		return fmt.Errorf("not this team's manager: %w", apperr.ErrForbidden)
	}

	member, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("user: %w", apperr.ErrNotFound)
	} else if err != nil {
		return err
	}
	if member.TeamID != nil {
		return fmt.Errorf("user already belongs to a team: %w", apperr.ErrConflict)
	}

	if err := s.TeamRepo.AddMember(ctx, t.ID, member.ID); err != nil {
		return err
	}
	if err := s.UserRepo.SetTeam(ctx, member.ID, t.ID); err != nil {
		return err
	}

	actor := s.actorRef(ctx, actorID)
	go s.Dispatcher.TeamMemberAdded(context.Background(), actor, t.Name,
		notification.Actor{ID: member.ID, Name: member.Name}, t.Manager)

	return nil
}

func (s *TeamServiceImpl) RemoveMember(ctx context.Context, actorID string, actorRole models.Role, teamID, userID string) error {
	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if !s.canManage(t, actorID, actorRole) {
		return fmt.Errorf("not this team's manager: %w", apperr.ErrForbidden)
	}

	member, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("user: %w", apperr.ErrNotFound)
	} else if err != nil {
		return err
	}
	if member.ID == t.Manager {
		return fmt.Errorf("cannot remove the team manager: %w", apperr.ErrValidation)
	}

	if err := s.TeamRepo.RemoveMember(ctx, t.ID, member.ID); err != nil {
		return err
	}
	if err := s.UserRepo.ClearTeam(ctx, member.ID); err != nil {
		return err
	}

	// Drop the user from denormalized membership lists; best-effort.
	if err := s.ProjectClean.RemoveUserFromAll(ctx, member.ID); err != nil {
		s.Logger.Warn("project membership cleanup failed", zap.Error(err), zap.String("user_id", userID))
	}
	if err := s.TaskClean.RemoveUserFromAll(ctx, member.ID); err != nil {
		s.Logger.Warn("task assignment cleanup failed", zap.Error(err), zap.String("user_id", userID))
	}

	actor := s.actorRef(ctx, actorID)
	go s.Dispatcher.TeamMemberRemoved(context.Background(), actor, t.Name,
		notification.Actor{ID: member.ID, Name: member.Name}, t.Manager)

	return nil
}

func (s *TeamServiceImpl) DeleteTeam(ctx context.Context, actorID, teamID string) error {
	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}

	for _, member := range t.Members {
		if err := s.UserRepo.ClearTeam(ctx, member); err != nil {
			s.Logger.Warn("clearing team_id failed", zap.Error(err), zap.String("member", member.Hex()))
		}
	}

	return s.TeamRepo.Delete(ctx, t.ID)
}

func (s *TeamServiceImpl) actorRef(ctx context.Context, actorID string) notification.Actor {
	oid, _ := primitive.ObjectIDFromHex(actorID)
	actor := notification.Actor{ID: oid}
	if usr, err := s.UserRepo.FindByID(ctx, actorID); err == nil {
		actor.Name = usr.Name
	}
	return actor
}
