package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"taskpilot/internal/common/models"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/project"
	"taskpilot/internal/features/task"
)

type mockTaskRepo struct {
	task.TaskRepository
	mu     sync.Mutex
	due    []task.Task
	marked []primitive.ObjectID
}

func (m *mockTaskRepo) FindDueWithin(ctx context.Context, window time.Duration) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]task.Task, 0, len(m.due))
	for _, t := range m.due {
		stamped := false
		for _, id := range m.marked {
			if id == t.ID {
				stamped = true
				break
			}
		}
		if !stamped {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskRepo) MarkReminderSent(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, id)
	return nil
}

type stubProjectRepo struct{ project.ProjectRepository }

func (stubProjectRepo) FindByID(ctx context.Context, id string) (*project.Project, error) {
	return nil, mongo.ErrNoDocuments
}

type captureNotifRepo struct {
	notification.NotificationRepository
	mu       sync.Mutex
	inserted []notification.Notification
}

func (m *captureNotifRepo) Create(ctx context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, *n)
	return nil
}

func (m *captureNotifRepo) CreateMany(ctx context.Context, ns []notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, ns...)
	return nil
}

type noAdmins struct{}

func (noAdmins) FindByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return nil, nil
}

func newScheduler(repo *mockTaskRepo, notes *captureNotifRepo) *Scheduler {
	dispatcher := notification.NewDispatcher(notes, noAdmins{}, zap.NewNop())
	return NewScheduler(repo, stubProjectRepo{}, dispatcher, zap.NewNop())
}

func dueTask(assignees ...primitive.ObjectID) task.Task {
	due := time.Now().Add(2 * time.Hour)
	return task.Task{
		ID:        primitive.NewObjectID(),
		Title:     "Ship it",
		Status:    task.StatusToDo,
		ProjectID: primitive.NewObjectID(),
		Assignees: assignees,
		DueDate:   &due,
	}
}

func TestScanNotifiesEachAssigneeOnce(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	repo := &mockTaskRepo{due: []task.Task{dueTask(a, b)}}
	notes := &captureNotifRepo{}
	s := newScheduler(repo, notes)

	s.Scan(context.Background())

	require.Len(t, notes.inserted, 2)
	recipients := []primitive.ObjectID{notes.inserted[0].Recipient, notes.inserted[1].Recipient}
	assert.ElementsMatch(t, []primitive.ObjectID{a, b}, recipients)
	for _, n := range notes.inserted {
		assert.Equal(t, notification.TypeDeadlineReminder, n.Type)
		assert.Equal(t, notification.PriorityHigh, n.Priority)
	}
}

func TestScanStampsAndDoesNotRepeat(t *testing.T) {
	a := primitive.NewObjectID()
	repo := &mockTaskRepo{due: []task.Task{dueTask(a)}}
	notes := &captureNotifRepo{}
	s := newScheduler(repo, notes)

	s.Scan(context.Background())
	s.Scan(context.Background())

	assert.Len(t, notes.inserted, 1, "second scan must skip the stamped task")
	assert.Len(t, repo.marked, 1)
}

func TestScanSkipsUnassignedTasks(t *testing.T) {
	repo := &mockTaskRepo{due: []task.Task{dueTask()}}
	notes := &captureNotifRepo{}
	s := newScheduler(repo, notes)

	s.Scan(context.Background())

	assert.Empty(t, notes.inserted)
	assert.Empty(t, repo.marked, "unassigned tasks are left for the next scan")
}
