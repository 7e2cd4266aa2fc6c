package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/project"
	"taskpilot/internal/features/user"
)

type mockTaskRepo struct {
	TaskRepository
	mu      sync.Mutex
	tasks   map[primitive.ObjectID]*Task
	lastSet bson.M
}

func newMockTaskRepo(tasks ...*Task) *mockTaskRepo {
	m := &mockTaskRepo{tasks: map[primitive.ObjectID]*Task{}}
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	return m
}

func (m *mockTaskRepo) Create(ctx context.Context, t *Task) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[oid]; ok {
		return t, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockTaskRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSet = set
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

// stubProjects authorizes against a single in-memory project using the
// same rules as the real service.
type stubProjects struct {
	project.ProjectService
	project *project.Project
}

func (s stubProjects) Authorize(ctx context.Context, userID string, role models.Role, projectID string) (*project.Project, error) {
	if s.project == nil || s.project.ID.Hex() != projectID {
		return nil, apperr.ErrNotFound
	}
	if role == models.RoleAdmin {
		return s.project, nil
	}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.ErrValidation
	}
	if s.project.IsManagedBy(oid) || s.project.HasMember(oid) {
		return s.project, nil
	}
	return nil, apperr.ErrForbidden
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

func newTaskService(repo *mockTaskRepo, p *project.Project) TaskService {
	userRepo := stubUserRepo{}
	dispatcher := notification.NewDispatcher(discardNotifRepo{}, userRepo, zap.NewNop())
	return NewTaskService(repo, stubProjects{project: p}, userRepo, dispatcher, zap.NewNop())
}

func testProject(members ...primitive.ObjectID) *project.Project {
	return &project.Project{
		ID:          primitive.NewObjectID(),
		Name:        "Apollo",
		TeamMembers: members,
	}
}

func TestCreateTaskRequiresProjectAccess(t *testing.T) {
	p := testProject()
	svc := newTaskService(newMockTaskRepo(), p)

	_, err := svc.CreateTask(context.Background(), primitive.NewObjectID().Hex(), models.RoleManager, CreateTaskInput{
		Title:     "Ship it",
		ProjectID: p.ID.Hex(),
	})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateTaskDefaultsStatusAndPriority(t *testing.T) {
	p := testProject()
	repo := newMockTaskRepo()
	svc := newTaskService(repo, p)

	created, err := svc.CreateTask(context.Background(), primitive.NewObjectID().Hex(), models.RoleAdmin, CreateTaskInput{
		Title:     "Ship it",
		ProjectID: p.ID.Hex(),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusToDo, created.Status)
	assert.Equal(t, PriorityMedium, created.Priority)
	assert.NotNil(t, created.Assignees)
}

func TestUpdateTaskTeamMemberStatusOnly(t *testing.T) {
	member := primitive.NewObjectID()
	p := testProject(member)
	task := &Task{ID: primitive.NewObjectID(), Title: "Ship it", Status: StatusToDo, ProjectID: p.ID, Assignees: []primitive.ObjectID{member}}
	svc := newTaskService(newMockTaskRepo(task), p)

	title := "renamed"
	_, err := svc.UpdateTask(context.Background(), member.Hex(), models.RoleTeamMember, task.ID.Hex(), UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	status := StatusInProgress
	updated, err := svc.UpdateTask(context.Background(), member.Hex(), models.RoleTeamMember, task.ID.Hex(), UpdateTaskInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, updated.Status)
}

func TestUpdateTaskUnassignedTeamMemberForbidden(t *testing.T) {
	member := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	p := testProject(member, assignee)
	task := &Task{ID: primitive.NewObjectID(), Status: StatusToDo, ProjectID: p.ID, Assignees: []primitive.ObjectID{assignee}}
	svc := newTaskService(newMockTaskRepo(task), p)

	// Project membership alone does not grant task access.
	status := StatusInProgress
	_, err := svc.UpdateTask(context.Background(), member.Hex(), models.RoleTeamMember, task.ID.Hex(), UpdateTaskInput{Status: &status})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.GetTask(context.Background(), member.Hex(), models.RoleTeamMember, task.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.UpdateTask(context.Background(), assignee.Hex(), models.RoleTeamMember, task.ID.Hex(), UpdateTaskInput{Status: &status})
	assert.NoError(t, err)
}

func TestUpdateTaskRejectsInvalidStatus(t *testing.T) {
	p := testProject()
	task := &Task{ID: primitive.NewObjectID(), Status: StatusToDo, ProjectID: p.ID}
	svc := newTaskService(newMockTaskRepo(task), p)

	bad := TaskStatus("Done")
	_, err := svc.UpdateTask(context.Background(), primitive.NewObjectID().Hex(), models.RoleAdmin, task.ID.Hex(), UpdateTaskInput{Status: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateTaskNewDueDateRearmsReminder(t *testing.T) {
	p := testProject()
	sent := time.Now()
	task := &Task{ID: primitive.NewObjectID(), Status: StatusToDo, ProjectID: p.ID, ReminderSentAt: &sent}
	repo := newMockTaskRepo(task)
	svc := newTaskService(repo, p)

	due := time.Now().Add(48 * time.Hour)
	_, err := svc.UpdateTask(context.Background(), primitive.NewObjectID().Hex(), models.RoleAdmin, task.ID.Hex(), UpdateTaskInput{DueDate: &due})
	require.NoError(t, err)

	require.Contains(t, repo.lastSet, "reminder_sent_at")
	assert.Nil(t, repo.lastSet["reminder_sent_at"])
}

func TestDeleteTaskForbiddenForTeamMember(t *testing.T) {
	member := primitive.NewObjectID()
	p := testProject(member)
	task := &Task{ID: primitive.NewObjectID(), ProjectID: p.ID}
	svc := newTaskService(newMockTaskRepo(task), p)

	err := svc.DeleteTask(context.Background(), member.Hex(), models.RoleTeamMember, task.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGetMissingTaskNotFound(t *testing.T) {
	svc := newTaskService(newMockTaskRepo(), testProject())

	_, err := svc.GetTask(context.Background(), primitive.NewObjectID().Hex(), models.RoleAdmin, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
