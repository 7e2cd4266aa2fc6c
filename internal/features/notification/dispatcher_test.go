package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"taskpilot/internal/common/models"
)

type mockRepo struct {
	NotificationRepository
	inserted []Notification
	failNext error
}

func (m *mockRepo) Create(ctx context.Context, n *Notification) error {
	if m.failNext != nil {
		return m.failNext
	}
	m.inserted = append(m.inserted, *n)
	return nil
}

func (m *mockRepo) CreateMany(ctx context.Context, ns []Notification) error {
	if m.failNext != nil {
		return m.failNext
	}
	m.inserted = append(m.inserted, ns...)
	return nil
}

type mockAdminFinder struct {
	admins []models.User
	err    error
}

func (m *mockAdminFinder) FindByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.admins, nil
}

func newTestDispatcher(repo *mockRepo, finder *mockAdminFinder) Dispatcher {
	if finder == nil {
		finder = &mockAdminFinder{}
	}
	return NewDispatcher(repo, finder, zap.NewNop())
}

func byRecipient(notes []Notification) map[primitive.ObjectID][]Notification {
	out := map[primitive.ObjectID][]Notification{}
	for _, n := range notes {
		out[n.Recipient] = append(out[n.Recipient], n)
	}
	return out
}

func TestTaskCreatedActorGetsOnlyConfirmation(t *testing.T) {
	repo := &mockRepo{}
	d := newTestDispatcher(repo, nil)

	actor := Actor{ID: primitive.NewObjectID(), Name: "Mira"}
	assignee := primitive.NewObjectID()
	manager := primitive.NewObjectID()

	d.TaskCreated(context.Background(), actor,
		TaskInfo{ID: primitive.NewObjectID(), Title: "Ship it", ProjectID: primitive.NewObjectID(), Assignees: []primitive.ObjectID{assignee, actor.ID}},
		ProjectInfo{ID: primitive.NewObjectID(), Name: "Rollout", ManagerID: &manager})

	grouped := byRecipient(repo.inserted)
	require.Len(t, grouped[actor.ID], 1)
	assert.Contains(t, grouped[actor.ID][0].Message, "You successfully created")
	require.Len(t, grouped[assignee], 1)
	assert.Equal(t, TypeTaskAssigned, grouped[assignee][0].Type)
	require.Len(t, grouped[manager], 1)
	assert.Equal(t, TypeTaskCreated, grouped[manager][0].Type)
}

func TestTaskCreatedManagerAlsoAssigneeGetsOne(t *testing.T) {
	repo := &mockRepo{}
	d := newTestDispatcher(repo, nil)

	actor := Actor{ID: primitive.NewObjectID(), Name: "Mira"}
	manager := primitive.NewObjectID()

	d.TaskCreated(context.Background(), actor,
		TaskInfo{ID: primitive.NewObjectID(), Title: "Ship it", ProjectID: primitive.NewObjectID(), Assignees: []primitive.ObjectID{manager}},
		ProjectInfo{ID: primitive.NewObjectID(), Name: "Rollout", ManagerID: &manager})

	grouped := byRecipient(repo.inserted)
	require.Len(t, grouped[manager], 1, "manager who is also assignee must receive exactly one notification")
	assert.Equal(t, TypeTaskAssigned, grouped[manager][0].Type)
}

func TestProjectCommentManagerInMembersDeduplicated(t *testing.T) {
	repo := &mockRepo{}
	d := newTestDispatcher(repo, nil)

	actor := Actor{ID: primitive.NewObjectID(), Name: "Toni"}
	manager := primitive.NewObjectID()
	member := primitive.NewObjectID()

	d.ProjectCommentAdded(context.Background(), actor, ProjectInfo{
		ID:          primitive.NewObjectID(),
		Name:        "Rollout",
		ManagerID:   &manager,
		TeamMembers: []primitive.ObjectID{manager, member},
	})

	grouped := byRecipient(repo.inserted)
	assert.Len(t, grouped[manager], 1)
	assert.Len(t, grouped[member], 1)
	assert.Empty(t, grouped[actor.ID], "comment events have no self-confirmation")
}

func TestProjectCommentNilManagerSkippedSilently(t *testing.T) {
	repo := &mockRepo{}
	d := newTestDispatcher(repo, nil)

	actor := Actor{ID: primitive.NewObjectID(), Name: "Toni"}
	member := primitive.NewObjectID()

	d.ProjectCommentAdded(context.Background(), actor, ProjectInfo{
		ID:          primitive.NewObjectID(),
		Name:        "Rollout",
		TeamMembers: []primitive.ObjectID{member},
	})

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, member, repo.inserted[0].Recipient)
}

func TestProjectCreatedScenario(t *testing.T) {
	// Manager M creates project P with teamMembers=[T1]: T1 gets one
	// PROJECT_CREATED, M gets one self-confirmation, admins get none.
	repo := &mockRepo{}
	admin := models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	d := newTestDispatcher(repo, &mockAdminFinder{admins: []models.User{admin}})

	manager := Actor{ID: primitive.NewObjectID(), Name: "M"}
	t1 := primitive.NewObjectID()

	d.ProjectCreated(context.Background(), manager, ProjectInfo{
		ID:          primitive.NewObjectID(),
		Name:        "P",
		ManagerID:   &manager.ID,
		TeamMembers: []primitive.ObjectID{t1},
	})

	grouped := byRecipient(repo.inserted)
	require.Len(t, grouped[t1], 1)
	assert.Equal(t, TypeProjectCreated, grouped[t1][0].Type)
	require.Len(t, grouped[manager.ID], 1)
	assert.Contains(t, grouped[manager.ID][0].Message, "You successfully created")
	assert.Empty(t, grouped[admin.ID], "creations never notify admins")
}

func TestProjectDeletedByManagerEscalatesToAdmins(t *testing.T) {
	repo := &mockRepo{}
	adminA := models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	adminB := models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	d := newTestDispatcher(repo, &mockAdminFinder{admins: []models.User{adminA, adminB}})

	manager := Actor{ID: primitive.NewObjectID(), Name: "M"}
	member := primitive.NewObjectID()

	d.ProjectDeleted(context.Background(), manager, ProjectInfo{
		ID:          primitive.NewObjectID(),
		Name:        "P",
		ManagerID:   &manager.ID,
		TeamMembers: []primitive.ObjectID{member},
	}, true)

	grouped := byRecipient(repo.inserted)
	require.Len(t, grouped[adminA.ID], 1)
	assert.Equal(t, TypeProjectDeletedByMgr, grouped[adminA.ID][0].Type)
	require.Len(t, grouped[adminB.ID], 1)
	assert.Equal(t, TypeProjectDeletedByMgr, grouped[adminB.ID][0].Type)
	require.Len(t, grouped[member], 1)
	assert.Equal(t, TypeProjectDeleted, grouped[member][0].Type)
}

func TestProjectDeletedByAdminNoEscalation(t *testing.T) {
	repo := &mockRepo{}
	admin := models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	d := newTestDispatcher(repo, &mockAdminFinder{admins: []models.User{admin}})

	actor := Actor{ID: admin.ID, Name: "A"}
	d.ProjectDeleted(context.Background(), actor, ProjectInfo{
		ID:   primitive.NewObjectID(),
		Name: "P",
	}, false)

	for _, n := range repo.inserted {
		assert.NotEqual(t, TypeProjectDeletedByMgr, n.Type)
	}
}

func TestContactSubmittedOnePerAdmin(t *testing.T) {
	repo := &mockRepo{}
	adminA := models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	adminB := models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	d := newTestDispatcher(repo, &mockAdminFinder{admins: []models.User{adminA, adminB}})

	contactID := primitive.NewObjectID()
	d.ContactSubmitted(context.Background(), contactID, "Visitor", "Pricing question")

	require.Len(t, repo.inserted, 2)
	for _, n := range repo.inserted {
		assert.Equal(t, TypeContactSubmitted, n.Type)
		require.NotNil(t, n.ContactID)
		assert.Equal(t, contactID, *n.ContactID)
	}
}

func TestDispatcherSwallowsWriteErrors(t *testing.T) {
	repo := &mockRepo{failNext: errors.New("datastore down")}
	d := newTestDispatcher(repo, nil)

	actor := Actor{ID: primitive.NewObjectID(), Name: "Mira"}
	// Must not panic or surface the error.
	d.ProjectCreated(context.Background(), actor, ProjectInfo{ID: primitive.NewObjectID(), Name: "P"})
	assert.Empty(t, repo.inserted)
}

func TestChatMessageExcludesSender(t *testing.T) {
	repo := &mockRepo{}
	d := newTestDispatcher(repo, nil)

	actor := Actor{ID: primitive.NewObjectID(), Name: "Mira"}
	peer := primitive.NewObjectID()

	d.ChatMessage(context.Background(), actor, primitive.NewObjectID(), []primitive.ObjectID{actor.ID, peer, peer}, "hey")

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, peer, repo.inserted[0].Recipient)
}

func TestDeadlineReminderDedupesAssignees(t *testing.T) {
	repo := &mockRepo{}
	d := newTestDispatcher(repo, nil)

	a := primitive.NewObjectID()
	d.DeadlineReminder(context.Background(), TaskInfo{
		ID:        primitive.NewObjectID(),
		Title:     "Ship it",
		ProjectID: primitive.NewObjectID(),
		Assignees: []primitive.ObjectID{a, a},
	}, "Rollout")

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, PriorityHigh, repo.inserted[0].Priority)
}
