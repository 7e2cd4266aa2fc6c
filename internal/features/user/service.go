package user

import (
	"context"
	"errors"
	"fmt"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ManagedTeamChecker reports whether a user currently manages a team.
// Satisfied by the team repository through an fx adapter.
type ManagedTeamChecker interface {
	HasManagedTeam(ctx context.Context, managerID primitive.ObjectID) (bool, error)
}

type UserService interface {
	ListUsers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]models.User, int64, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) error
	ChangeRole(ctx context.Context, id string, newRole models.Role) error
	DeleteUser(ctx context.Context, id string) error
}

type UserServiceImpl struct {
	UserRepo UserRepository
	Teams    ManagedTeamChecker
	Logger   *zap.Logger
}

func NewUserService(userRepo UserRepository, teams ManagedTeamChecker, logger *zap.Logger) UserService {
	return &UserServiceImpl{
		UserRepo: userRepo,
		Teams:    teams,
		Logger:   logger,
	}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]models.User, int64, error) {
	if filter == nil {
		filter = make(map[string]interface{})
	}
	offset := (page - 1) * limit
	return s.UserRepo.List(ctx, filter, limit, offset)
}

func (s *UserServiceImpl) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	usr, err := s.UserRepo.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	return usr, err
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) error {
	usr, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	set := bson.M{}
	if name, ok := updates["name"].(string); ok && name != "" && name != usr.Name {
		set["name"] = name
	}
	if len(set) == 0 {
		return nil
	}
	return s.UserRepo.Update(ctx, id, set)
}

// ChangeRole applies the restricted transition matrix: only
// team-member <-> manager is allowed. The admin role can never be granted
// or removed here, and protected accounts reject any change.
func (s *UserServiceImpl) ChangeRole(ctx context.Context, id string, newRole models.Role) error {
	if !newRole.Valid() || newRole == models.RoleAdmin {
		return fmt.Errorf("role %q not assignable: %w", newRole, apperr.ErrValidation)
	}

	usr, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if usr.IsProtected {
		return fmt.Errorf("account is protected: %w", apperr.ErrForbidden)
	}
	if usr.Role == models.RoleAdmin {
		return fmt.Errorf("admin role is immutable: %w", apperr.ErrForbidden)
	}
	if usr.Role == newRole {
		return nil
	}

	// A manager who still owns a team must be reassigned first.
	if usr.Role == models.RoleManager && newRole == models.RoleTeamMember {
		owns, err := s.Teams.HasManagedTeam(ctx, usr.ID)
		if err != nil {
			return err
		}
		if owns {
			return fmt.Errorf("user still manages a team: %w", apperr.ErrConflict)
		}
	}

	s.Logger.Info("role change", zap.String("user_id", id), zap.String("from", string(usr.Role)), zap.String("to", string(newRole)))
	return s.UserRepo.Update(ctx, id, bson.M{"role": newRole})
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, id string) error {
	usr, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if usr.IsProtected {
		return fmt.Errorf("account is protected: %w", apperr.ErrForbidden)
	}
	return s.UserRepo.Delete(ctx, id)
}
