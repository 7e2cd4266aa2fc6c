package project

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/user"
)

type mockProjectRepo struct {
	ProjectRepository
	mu         sync.Mutex
	projects   map[primitive.ObjectID]*Project
	lastFilter bson.M
}

func newMockProjectRepo(projects ...*Project) *mockProjectRepo {
	m := &mockProjectRepo{projects: map[primitive.ObjectID]*Project{}}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *mockProjectRepo) Create(ctx context.Context, p *Project) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *mockProjectRepo) FindByID(ctx context.Context, id string) (*Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.projects[oid]; ok {
		return p, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockProjectRepo) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Project, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	out := make([]Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (m *mockProjectRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	return nil
}

func (m *mockProjectRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

func (m *mockProjectRepo) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.projects[id]
	out := p.Comments[:0]
	for _, c := range p.Comments {
		if c.ID != commentID {
			out = append(out, c)
		}
	}
	p.Comments = out
	return nil
}

type mockCascade struct {
	mu      sync.Mutex
	deleted []primitive.ObjectID
}

func (m *mockCascade) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, projectID)
	return nil
}

type stubUserRepo struct{ user.UserRepository }

func (stubUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, mongo.ErrNoDocuments
}

func (stubUserRepo) FindByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return nil, nil
}

type discardNotifRepo struct{ notification.NotificationRepository }

func (discardNotifRepo) Create(ctx context.Context, n *notification.Notification) error { return nil }
func (discardNotifRepo) CreateMany(ctx context.Context, ns []notification.Notification) error {
	return nil
}

func newProjectService(repo *mockProjectRepo, cascade *mockCascade) ProjectService {
	userRepo := stubUserRepo{}
	dispatcher := notification.NewDispatcher(discardNotifRepo{}, userRepo, zap.NewNop())
	return NewProjectService(repo, cascade, userRepo, dispatcher, zap.NewNop())
}

func TestAuthorizeAdminAlwaysPasses(t *testing.T) {
	p := &Project{ID: primitive.NewObjectID(), Name: "Apollo"}
	svc := newProjectService(newMockProjectRepo(p), &mockCascade{})

	got, err := svc.Authorize(context.Background(), primitive.NewObjectID().Hex(), models.RoleAdmin, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestAuthorizeMemberAndManagerPass(t *testing.T) {
	manager := primitive.NewObjectID()
	member := primitive.NewObjectID()
	p := &Project{
		ID:             primitive.NewObjectID(),
		Name:           "Apollo",
		ProjectManager: &manager,
		TeamMembers:    []primitive.ObjectID{member},
	}
	svc := newProjectService(newMockProjectRepo(p), &mockCascade{})

	_, err := svc.Authorize(context.Background(), manager.Hex(), models.RoleManager, p.ID.Hex())
	assert.NoError(t, err)

	_, err = svc.Authorize(context.Background(), member.Hex(), models.RoleTeamMember, p.ID.Hex())
	assert.NoError(t, err)
}

func TestAuthorizeOutsiderForbidden(t *testing.T) {
	p := &Project{ID: primitive.NewObjectID(), Name: "Apollo"}
	svc := newProjectService(newMockProjectRepo(p), &mockCascade{})

	_, err := svc.Authorize(context.Background(), primitive.NewObjectID().Hex(), models.RoleManager, p.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAuthorizeMissingProjectNotFound(t *testing.T) {
	svc := newProjectService(newMockProjectRepo(), &mockCascade{})

	_, err := svc.Authorize(context.Background(), primitive.NewObjectID().Hex(), models.RoleAdmin, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListProjectsScopesNonAdmins(t *testing.T) {
	repo := newMockProjectRepo()
	svc := newProjectService(repo, &mockCascade{})
	uid := primitive.NewObjectID()

	_, _, err := svc.ListProjects(context.Background(), uid.Hex(), models.RoleTeamMember, 1, 20)
	require.NoError(t, err)
	require.Contains(t, repo.lastFilter, "$or")

	_, _, err = svc.ListProjects(context.Background(), uid.Hex(), models.RoleAdmin, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, repo.lastFilter)
}

func TestUpdateProjectForbiddenForTeamMember(t *testing.T) {
	member := primitive.NewObjectID()
	p := &Project{ID: primitive.NewObjectID(), TeamMembers: []primitive.ObjectID{member}}
	svc := newProjectService(newMockProjectRepo(p), &mockCascade{})

	name := "renamed"
	_, err := svc.UpdateProject(context.Background(), member.Hex(), models.RoleTeamMember, p.ID.Hex(), UpdateProjectInput{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateProjectRejectsInvalidStatus(t *testing.T) {
	p := &Project{ID: primitive.NewObjectID()}
	svc := newProjectService(newMockProjectRepo(p), &mockCascade{})

	bad := ProjectStatus("Done")
	_, err := svc.UpdateProject(context.Background(), primitive.NewObjectID().Hex(), models.RoleAdmin, p.ID.Hex(), UpdateProjectInput{Status: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteProjectCascadesTasks(t *testing.T) {
	p := &Project{ID: primitive.NewObjectID(), Name: "Apollo"}
	repo := newMockProjectRepo(p)
	cascade := &mockCascade{}
	svc := newProjectService(repo, cascade)

	err := svc.DeleteProject(context.Background(), primitive.NewObjectID().Hex(), models.RoleAdmin, p.ID.Hex())
	require.NoError(t, err)

	assert.NotContains(t, repo.projects, p.ID)
	require.Len(t, cascade.deleted, 1)
	assert.Equal(t, p.ID, cascade.deleted[0])
}

func TestDeleteCommentOnlyAuthorOrPrivileged(t *testing.T) {
	author := primitive.NewObjectID()
	other := primitive.NewObjectID()
	comment := models.Comment{ID: primitive.NewObjectID(), Author: author, Text: "hi"}
	p := &Project{
		ID:          primitive.NewObjectID(),
		TeamMembers: []primitive.ObjectID{author, other},
		Comments:    []models.Comment{comment},
	}
	svc := newProjectService(newMockProjectRepo(p), &mockCascade{})

	err := svc.DeleteComment(context.Background(), other.Hex(), models.RoleTeamMember, p.ID.Hex(), comment.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = svc.DeleteComment(context.Background(), author.Hex(), models.RoleTeamMember, p.ID.Hex(), comment.ID.Hex())
	assert.NoError(t, err)
}
