package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
)

type mockUserRepo struct {
	UserRepository
	users   map[string]*models.User
	lastSet bson.M
	deleted []string
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.ID.Hex()] = u
	}
	return m
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockUserRepo) Update(ctx context.Context, id string, set bson.M) error {
	m.lastSet = set
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type stubTeams struct{ owns bool }

func (s stubTeams) HasManagedTeam(ctx context.Context, managerID primitive.ObjectID) (bool, error) {
	return s.owns, nil
}

func TestChangeRoleManagerToMember(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	repo := newMockUserRepo(u)
	svc := NewUserService(repo, stubTeams{}, zap.NewNop())

	require.NoError(t, svc.ChangeRole(context.Background(), u.ID.Hex(), models.RoleTeamMember))
	assert.Equal(t, bson.M{"role": models.RoleTeamMember}, repo.lastSet)
}

func TestChangeRoleBlockedWhileManagingTeam(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	svc := NewUserService(newMockUserRepo(u), stubTeams{owns: true}, zap.NewNop())

	err := svc.ChangeRole(context.Background(), u.ID.Hex(), models.RoleTeamMember)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestChangeRoleNeverGrantsAdmin(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	svc := NewUserService(newMockUserRepo(u), stubTeams{}, zap.NewNop())

	err := svc.ChangeRole(context.Background(), u.ID.Hex(), models.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestChangeRoleProtectedAccount(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin, IsProtected: true}
	svc := NewUserService(newMockUserRepo(u), stubTeams{}, zap.NewNop())

	err := svc.ChangeRole(context.Background(), u.ID.Hex(), models.RoleManager)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestDeleteProtectedAccount(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin, IsProtected: true}
	repo := newMockUserRepo(u)
	svc := NewUserService(repo, stubTeams{}, zap.NewNop())

	err := svc.DeleteUser(context.Background(), u.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Empty(t, repo.deleted)
}

func TestDeleteUnknownUserNotFound(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), stubTeams{}, zap.NewNop())

	err := svc.DeleteUser(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
