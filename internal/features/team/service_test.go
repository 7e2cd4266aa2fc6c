package team

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/user"
)

type mockTeamRepo struct {
	TeamRepository
	mu     sync.Mutex
	teams  map[primitive.ObjectID]*Team
	byName map[string]*Team
	txErr  error
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{
		teams:  map[primitive.ObjectID]*Team{},
		byName: map[string]*Team{},
	}
}

func (m *mockTeamRepo) Create(ctx context.Context, t *Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
	m.byName[t.Name] = t
	return nil
}

func (m *mockTeamRepo) FindByID(ctx context.Context, id string) (*Team, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.teams[oid]; ok {
		return t, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockTeamRepo) FindByName(ctx context.Context, name string) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byName[name]; ok {
		return t, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockTeamRepo) AddMember(ctx context.Context, teamID, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.teams[teamID]
	for _, member := range t.Members {
		if member == userID {
			return nil
		}
	}
	t.Members = append(t.Members, userID)
	return nil
}

func (m *mockTeamRepo) RemoveMember(ctx context.Context, teamID, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.teams[teamID]
	out := t.Members[:0]
	for _, member := range t.Members {
		if member != userID {
			out = append(out, member)
		}
	}
	t.Members = out
	return nil
}

func (m *mockTeamRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(ctx)
}

type mockUserRepo struct {
	user.UserRepository
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[oid]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockUserRepo) SetTeam(ctx context.Context, userID, teamID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].TeamID = &teamID
	return nil
}

func (m *mockUserRepo) ClearTeam(ctx context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].TeamID = nil
	return nil
}

func (m *mockUserRepo) FindByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return nil, nil
}

type noopCleaner struct{ calls int }

func (c *noopCleaner) RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error {
	c.calls++
	return nil
}

type discardNotifRepo struct{ notification.NotificationRepository }

func (discardNotifRepo) Create(ctx context.Context, n *notification.Notification) error { return nil }
func (discardNotifRepo) CreateMany(ctx context.Context, ns []notification.Notification) error {
	return nil
}

func newTeamService(teamRepo *mockTeamRepo, userRepo *mockUserRepo) TeamService {
	dispatcher := notification.NewDispatcher(discardNotifRepo{}, adminFinderFunc(userRepo.FindByRole), zap.NewNop())
	return NewTeamService(teamRepo, userRepo, CleanerParams{Projects: &noopCleaner{}, Tasks: &noopCleaner{}}, dispatcher, zap.NewNop())
}

type adminFinderFunc func(ctx context.Context, role models.Role) ([]models.User, error)

func (f adminFinderFunc) FindByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return f(ctx, role)
}

func TestCreateTeamSetsInvariants(t *testing.T) {
	admin := &models.User{ID: primitive.NewObjectID(), Name: "Admin", Role: models.RoleAdmin}
	manager := &models.User{ID: primitive.NewObjectID(), Name: "Mgr", Role: models.RoleManager}
	teamRepo := newMockTeamRepo()
	userRepo := newMockUserRepo(admin, manager)
	svc := newTeamService(teamRepo, userRepo)

	created, err := svc.CreateTeam(context.Background(), admin.ID.Hex(), manager.ID.Hex(), "Platform", "infra crew")
	require.NoError(t, err)

	assert.Contains(t, created.Members, manager.ID, "manager must be a member")
	require.NotNil(t, manager.TeamID)
	assert.Equal(t, created.ID, *manager.TeamID, "manager team_id must point at the new team")
}

func TestCreateTeamDuplicateNameConflicts(t *testing.T) {
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	m1 := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	m2 := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	teamRepo := newMockTeamRepo()
	userRepo := newMockUserRepo(admin, m1, m2)
	svc := newTeamService(teamRepo, userRepo)

	_, err := svc.CreateTeam(context.Background(), admin.ID.Hex(), m1.ID.Hex(), "Platform", "")
	require.NoError(t, err)

	_, err = svc.CreateTeam(context.Background(), admin.ID.Hex(), m2.ID.Hex(), "Platform", "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateTeamManagerAlreadyTeamedConflicts(t *testing.T) {
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	existing := primitive.NewObjectID()
	manager := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager, TeamID: &existing}
	svc := newTeamService(newMockTeamRepo(), newMockUserRepo(admin, manager))

	_, err := svc.CreateTeam(context.Background(), admin.ID.Hex(), manager.ID.Hex(), "Platform", "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateTeamFallsBackWhenTransactionsUnsupported(t *testing.T) {
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	manager := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	teamRepo := newMockTeamRepo()
	teamRepo.txErr = mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}
	userRepo := newMockUserRepo(admin, manager)
	svc := newTeamService(teamRepo, userRepo)

	created, err := svc.CreateTeam(context.Background(), admin.ID.Hex(), manager.ID.Hex(), "Platform", "")
	require.NoError(t, err)
	require.NotNil(t, manager.TeamID)
	assert.Equal(t, created.ID, *manager.TeamID)
}

func TestCreateTeamWriteFailureInTransactionNotRetried(t *testing.T) {
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	manager := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	teamRepo := newMockTeamRepo()
	teamRepo.txErr = errors.New("E11000 duplicate key error")
	userRepo := newMockUserRepo(admin, manager)
	svc := newTeamService(teamRepo, userRepo)

	_, err := svc.CreateTeam(context.Background(), admin.ID.Hex(), manager.ID.Hex(), "Platform", "")
	require.Error(t, err)
	assert.Empty(t, teamRepo.teams, "failed transaction must not be redone sequentially")
	assert.Nil(t, manager.TeamID)
}

func TestRemoveMemberRejectsManager(t *testing.T) {
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	manager := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	teamRepo := newMockTeamRepo()
	userRepo := newMockUserRepo(admin, manager)
	svc := newTeamService(teamRepo, userRepo)

	created, err := svc.CreateTeam(context.Background(), admin.ID.Hex(), manager.ID.Hex(), "Platform", "")
	require.NoError(t, err)

	err = svc.RemoveMember(context.Background(), admin.ID.Hex(), models.RoleAdmin, created.ID.Hex(), manager.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAddMemberForbiddenForOtherManager(t *testing.T) {
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	manager := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	outsider := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	member := &models.User{ID: primitive.NewObjectID(), Role: models.RoleTeamMember}
	teamRepo := newMockTeamRepo()
	userRepo := newMockUserRepo(admin, manager, outsider, member)
	svc := newTeamService(teamRepo, userRepo)

	created, err := svc.CreateTeam(context.Background(), admin.ID.Hex(), manager.ID.Hex(), "Platform", "")
	require.NoError(t, err)

	err = svc.AddMember(context.Background(), outsider.ID.Hex(), models.RoleManager, created.ID.Hex(), member.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
