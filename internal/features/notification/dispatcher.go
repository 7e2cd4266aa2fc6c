package notification

import (
	"context"
	"fmt"

	"taskpilot/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Actor identifies the user who caused a domain event.
type Actor struct {
	ID   primitive.ObjectID
	Name string
}

// ProjectInfo carries the project relations the fan-out rules need.
type ProjectInfo struct {
	ID          primitive.ObjectID
	Name        string
	ManagerID   *primitive.ObjectID
	TeamMembers []primitive.ObjectID
}

// TaskInfo carries the task relations the fan-out rules need.
type TaskInfo struct {
	ID        primitive.ObjectID
	Title     string
	ProjectID primitive.ObjectID
	Assignees []primitive.ObjectID
}

// AdminFinder lists users holding a given role. Satisfied by the user
// repository through an fx adapter.
type AdminFinder interface {
	FindByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// Dispatcher computes the recipient set for each domain event and writes
// one notification document per recipient. Every method is best-effort:
// failures are logged and swallowed so a notification write can never
// fail the domain operation that triggered it. Callers invoke methods
// fire-and-forget after the domain write has succeeded.
type Dispatcher interface {
	TaskCreated(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo)
	TaskUpdated(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo)
	TaskCompleted(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo)
	TaskDeleted(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo)
	TaskCommentAdded(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo)
	TaskAttachmentAdded(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo)

	ProjectCreated(ctx context.Context, actor Actor, project ProjectInfo)
	ProjectUpdated(ctx context.Context, actor Actor, project ProjectInfo)
	ProjectCompleted(ctx context.Context, actor Actor, project ProjectInfo)
	ProjectDeleted(ctx context.Context, actor Actor, project ProjectInfo, deletedByManager bool)
	ProjectCommentAdded(ctx context.Context, actor Actor, project ProjectInfo)
	ProjectAttachmentAdded(ctx context.Context, actor Actor, project ProjectInfo)

	TeamCreated(ctx context.Context, actor Actor, teamName string, managerID primitive.ObjectID)
	TeamMemberAdded(ctx context.Context, actor Actor, teamName string, member Actor, managerID primitive.ObjectID)
	TeamMemberRemoved(ctx context.Context, actor Actor, teamName string, member Actor, managerID primitive.ObjectID)

	UserRegistered(ctx context.Context, newUser Actor, teamManagerID *primitive.ObjectID)
	ContactSubmitted(ctx context.Context, contactID primitive.ObjectID, name, subject string)
	PasswordChanged(ctx context.Context, userID primitive.ObjectID)
	DeadlineReminder(ctx context.Context, task TaskInfo, projectName string)
	ChatMessage(ctx context.Context, actor Actor, chatID primitive.ObjectID, recipients []primitive.ObjectID, preview string)
}

type DispatcherImpl struct {
	repo   NotificationRepository
	users  AdminFinder
	logger *zap.Logger
}

func NewDispatcher(repo NotificationRepository, users AdminFinder, logger *zap.Logger) Dispatcher {
	return &DispatcherImpl{
		repo:   repo,
		users:  users,
		logger: logger,
	}
}

// write persists the batch, swallowing any failure.
func (d *DispatcherImpl) write(ctx context.Context, notes []Notification) {
	if len(notes) == 0 {
		return
	}
	if err := d.repo.CreateMany(ctx, notes); err != nil {
		d.logger.Warn("notification write failed", zap.Error(err), zap.Int("count", len(notes)))
	}
}

// peerSet returns manager + members, de-duplicated, with the actor removed.
// A nil manager is skipped silently.
func peerSet(managerID *primitive.ObjectID, members []primitive.ObjectID, actor primitive.ObjectID) []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{actor: true}
	var out []primitive.ObjectID
	if managerID != nil && !seen[*managerID] {
		seen[*managerID] = true
		out = append(out, *managerID)
	}
	for _, m := range members {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func (d *DispatcherImpl) taskEvent(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo,
	typ NotificationType, priority Priority, selfMsg, assigneeMsg, managerMsg string) {

	notes := []Notification{{
		Recipient: actor.ID,
		Sender:    &actor.ID,
		Type:      typ,
		Title:     task.Title,
		Message:   selfMsg,
		Priority:  priority,
		ProjectID: &project.ID,
		TaskID:    &task.ID,
	}}

	seen := map[primitive.ObjectID]bool{actor.ID: true}
	for _, assignee := range task.Assignees {
		if seen[assignee] {
			continue
		}
		seen[assignee] = true
		notes = append(notes, Notification{
			Recipient: assignee,
			Sender:    &actor.ID,
			Type:      typ,
			Title:     task.Title,
			Message:   assigneeMsg,
			Priority:  priority,
			ProjectID: &project.ID,
			TaskID:    &task.ID,
		})
	}
	// Manager gets the peer variant unless already covered as an assignee.
	if project.ManagerID != nil && !seen[*project.ManagerID] {
		notes = append(notes, Notification{
			Recipient: *project.ManagerID,
			Sender:    &actor.ID,
			Type:      typ,
			Title:     task.Title,
			Message:   managerMsg,
			Priority:  priority,
			ProjectID: &project.ID,
			TaskID:    &task.ID,
		})
	}

	d.write(ctx, notes)
}

func (d *DispatcherImpl) TaskCreated(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo) {
	// Assignees get the TASK_ASSIGNED variant on creation.
	notes := []Notification{{
		Recipient: actor.ID,
		Sender:    &actor.ID,
		Type:      TypeTaskCreated,
		Title:     task.Title,
		Message:   fmt.Sprintf("You successfully created task %q in project %q", task.Title, project.Name),
		Priority:  PriorityMedium,
		ProjectID: &project.ID,
		TaskID:    &task.ID,
	}}

	seen := map[primitive.ObjectID]bool{actor.ID: true}
	for _, assignee := range task.Assignees {
		if seen[assignee] {
			continue
		}
		seen[assignee] = true
		notes = append(notes, Notification{
			Recipient: assignee,
			Sender:    &actor.ID,
			Type:      TypeTaskAssigned,
			Title:     task.Title,
			Message:   fmt.Sprintf("%s assigned you task %q in project %q", actor.Name, task.Title, project.Name),
			Priority:  PriorityHigh,
			ProjectID: &project.ID,
			TaskID:    &task.ID,
		})
	}
	if project.ManagerID != nil && !seen[*project.ManagerID] {
		notes = append(notes, Notification{
			Recipient: *project.ManagerID,
			Sender:    &actor.ID,
			Type:      TypeTaskCreated,
			Title:     task.Title,
			Message:   fmt.Sprintf("%s created task %q in project %q", actor.Name, task.Title, project.Name),
			Priority:  PriorityMedium,
			ProjectID: &project.ID,
			TaskID:    &task.ID,
		})
	}

	d.write(ctx, notes)
}

func (d *DispatcherImpl) TaskUpdated(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo) {
	d.taskEvent(ctx, actor, task, project, TypeTaskUpdated, PriorityMedium,
		fmt.Sprintf("You successfully updated task %q", task.Title),
		fmt.Sprintf("%s updated task %q", actor.Name, task.Title),
		fmt.Sprintf("%s updated task %q in project %q", actor.Name, task.Title, project.Name))
}

func (d *DispatcherImpl) TaskCompleted(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo) {
	d.taskEvent(ctx, actor, task, project, TypeTaskCompleted, PriorityMedium,
		fmt.Sprintf("You marked task %q as completed", task.Title),
		fmt.Sprintf("%s marked task %q as completed", actor.Name, task.Title),
		fmt.Sprintf("%s completed task %q in project %q", actor.Name, task.Title, project.Name))
}

func (d *DispatcherImpl) TaskDeleted(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo) {
	d.taskEvent(ctx, actor, task, project, TypeTaskDeleted, PriorityMedium,
		fmt.Sprintf("You deleted task %q", task.Title),
		fmt.Sprintf("%s deleted task %q", actor.Name, task.Title),
		fmt.Sprintf("%s deleted task %q in project %q", actor.Name, task.Title, project.Name))
}

func (d *DispatcherImpl) TaskCommentAdded(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo) {
	notes := d.projectPeerNotes(actor, project, TypeTaskCommentAdded, PriorityMedium,
		fmt.Sprintf("%s commented on task %q", actor.Name, task.Title))
	for i := range notes {
		notes[i].TaskID = &task.ID
		notes[i].Title = task.Title
	}
	d.write(ctx, notes)
}

func (d *DispatcherImpl) TaskAttachmentAdded(ctx context.Context, actor Actor, task TaskInfo, project ProjectInfo) {
	notes := d.projectPeerNotes(actor, project, TypeTaskAttachmentAdded, PriorityMedium,
		fmt.Sprintf("%s added an attachment to task %q", actor.Name, task.Title))
	for i := range notes {
		notes[i].TaskID = &task.ID
		notes[i].Title = task.Title
	}
	d.write(ctx, notes)
}

// projectPeerNotes builds the manager + team members fan-out for
// comment/attachment style events, excluding the actor.
func (d *DispatcherImpl) projectPeerNotes(actor Actor, project ProjectInfo, typ NotificationType, priority Priority, msg string) []Notification {
	var notes []Notification
	for _, recipient := range peerSet(project.ManagerID, project.TeamMembers, actor.ID) {
		notes = append(notes, Notification{
			Recipient: recipient,
			Sender:    &actor.ID,
			Type:      typ,
			Title:     project.Name,
			Message:   msg,
			Priority:  priority,
			ProjectID: &project.ID,
		})
	}
	return notes
}

func (d *DispatcherImpl) projectEvent(ctx context.Context, actor Actor, project ProjectInfo, typ NotificationType, priority Priority, selfMsg, peerMsg string) {
	notes := []Notification{{
		Recipient: actor.ID,
		Sender:    &actor.ID,
		Type:      typ,
		Title:     project.Name,
		Message:   selfMsg,
		Priority:  priority,
		ProjectID: &project.ID,
	}}
	notes = append(notes, d.projectPeerNotes(actor, project, typ, priority, peerMsg)...)
	d.write(ctx, notes)
}

func (d *DispatcherImpl) ProjectCreated(ctx context.Context, actor Actor, project ProjectInfo) {
	d.projectEvent(ctx, actor, project, TypeProjectCreated, PriorityMedium,
		fmt.Sprintf("You successfully created project %q", project.Name),
		fmt.Sprintf("%s added you to project %q", actor.Name, project.Name))
}

func (d *DispatcherImpl) ProjectUpdated(ctx context.Context, actor Actor, project ProjectInfo) {
	d.projectEvent(ctx, actor, project, TypeProjectUpdated, PriorityMedium,
		fmt.Sprintf("You successfully updated project %q", project.Name),
		fmt.Sprintf("%s updated project %q", actor.Name, project.Name))
}

func (d *DispatcherImpl) ProjectCompleted(ctx context.Context, actor Actor, project ProjectInfo) {
	d.projectEvent(ctx, actor, project, TypeProjectCompleted, PriorityHigh,
		fmt.Sprintf("You marked project %q as completed", project.Name),
		fmt.Sprintf("%s marked project %q as completed", actor.Name, project.Name))
}

// ProjectDeleted fans out the generic deletion to the project's members.
// When the deleter is a manager rather than an admin, every admin is
// additionally notified through the distinct escalation kind.
func (d *DispatcherImpl) ProjectDeleted(ctx context.Context, actor Actor, project ProjectInfo, deletedByManager bool) {
	notes := []Notification{{
		Recipient: actor.ID,
		Sender:    &actor.ID,
		Type:      TypeProjectDeleted,
		Title:     project.Name,
		Message:   fmt.Sprintf("You deleted project %q", project.Name),
		Priority:  PriorityHigh,
		ProjectID: &project.ID,
	}}
	notes = append(notes, d.projectPeerNotes(actor, project, TypeProjectDeleted, PriorityHigh,
		fmt.Sprintf("%s deleted project %q", actor.Name, project.Name))...)

	if deletedByManager {
		admins, err := d.users.FindByRole(ctx, models.RoleAdmin)
		if err != nil {
			d.logger.Warn("admin lookup failed for deletion escalation", zap.Error(err))
		}
		for _, admin := range admins {
			if admin.ID == actor.ID {
				continue
			}
			notes = append(notes, Notification{
				Recipient: admin.ID,
				Sender:    &actor.ID,
				Type:      TypeProjectDeletedByMgr,
				Title:     project.Name,
				Message:   fmt.Sprintf("Manager %s deleted project %q", actor.Name, project.Name),
				Priority:  PriorityHigh,
				ProjectID: &project.ID,
			})
		}
	}

	d.write(ctx, notes)
}

func (d *DispatcherImpl) ProjectCommentAdded(ctx context.Context, actor Actor, project ProjectInfo) {
	d.write(ctx, d.projectPeerNotes(actor, project, TypeProjectCommentAdded, PriorityMedium,
		fmt.Sprintf("%s commented on project %q", actor.Name, project.Name)))
}

func (d *DispatcherImpl) ProjectAttachmentAdded(ctx context.Context, actor Actor, project ProjectInfo) {
	d.write(ctx, d.projectPeerNotes(actor, project, TypeProjectAttachmentAdded, PriorityMedium,
		fmt.Sprintf("%s added an attachment to project %q", actor.Name, project.Name)))
}

func (d *DispatcherImpl) TeamCreated(ctx context.Context, actor Actor, teamName string, managerID primitive.ObjectID) {
	notes := []Notification{{
		Recipient: actor.ID,
		Sender:    &actor.ID,
		Type:      TypeTeamCreated,
		Title:     teamName,
		Message:   fmt.Sprintf("You successfully created team %q", teamName),
		Priority:  PriorityMedium,
	}}
	if managerID != actor.ID {
		notes = append(notes, Notification{
			Recipient: managerID,
			Sender:    &actor.ID,
			Type:      TypeTeamCreated,
			Title:     teamName,
			Message:   fmt.Sprintf("%s assigned you as manager of team %q", actor.Name, teamName),
			Priority:  PriorityHigh,
		})
	}
	d.write(ctx, notes)
}

func (d *DispatcherImpl) teamMemberEvent(ctx context.Context, actor Actor, teamName string, member Actor, managerID primitive.ObjectID,
	typ NotificationType, selfMsg, memberMsg, managerMsg string) {

	notes := []Notification{{
		Recipient: actor.ID,
		Sender:    &actor.ID,
		Type:      typ,
		Title:     teamName,
		Message:   selfMsg,
		Priority:  PriorityMedium,
	}}
	seen := map[primitive.ObjectID]bool{actor.ID: true}
	if !seen[member.ID] {
		seen[member.ID] = true
		notes = append(notes, Notification{
			Recipient: member.ID,
			Sender:    &actor.ID,
			Type:      typ,
			Title:     teamName,
			Message:   memberMsg,
			Priority:  PriorityHigh,
		})
	}
	if !seen[managerID] {
		notes = append(notes, Notification{
			Recipient: managerID,
			Sender:    &actor.ID,
			Type:      typ,
			Title:     teamName,
			Message:   managerMsg,
			Priority:  PriorityMedium,
		})
	}
	d.write(ctx, notes)
}

func (d *DispatcherImpl) TeamMemberAdded(ctx context.Context, actor Actor, teamName string, member Actor, managerID primitive.ObjectID) {
	d.teamMemberEvent(ctx, actor, teamName, member, managerID, TypeTeamMemberAdded,
		fmt.Sprintf("You added %s to team %q", member.Name, teamName),
		fmt.Sprintf("%s added you to team %q", actor.Name, teamName),
		fmt.Sprintf("%s joined team %q", member.Name, teamName))
}

func (d *DispatcherImpl) TeamMemberRemoved(ctx context.Context, actor Actor, teamName string, member Actor, managerID primitive.ObjectID) {
	d.teamMemberEvent(ctx, actor, teamName, member, managerID, TypeTeamMemberRemoved,
		fmt.Sprintf("You removed %s from team %q", member.Name, teamName),
		fmt.Sprintf("You have been removed from team %q", teamName),
		fmt.Sprintf("%s was removed from team %q", member.Name, teamName))
}

func (d *DispatcherImpl) UserRegistered(ctx context.Context, newUser Actor, teamManagerID *primitive.ObjectID) {
	notes := []Notification{{
		Recipient: newUser.ID,
		Type:      TypeUserRegistered,
		Title:     "Welcome",
		Message:   fmt.Sprintf("Welcome to TaskPilot, %s!", newUser.Name),
		Priority:  PriorityLow,
	}}

	admins, err := d.users.FindByRole(ctx, models.RoleAdmin)
	if err != nil {
		d.logger.Warn("admin lookup failed for signup fan-out", zap.Error(err))
	}
	seen := map[primitive.ObjectID]bool{newUser.ID: true}
	for _, admin := range admins {
		if seen[admin.ID] {
			continue
		}
		seen[admin.ID] = true
		notes = append(notes, Notification{
			Recipient: admin.ID,
			Sender:    &newUser.ID,
			Type:      TypeUserRegistered,
			Title:     "New signup",
			Message:   fmt.Sprintf("%s registered an account", newUser.Name),
			Priority:  PriorityLow,
		})
	}
	if teamManagerID != nil && !seen[*teamManagerID] {
		notes = append(notes, Notification{
			Recipient: *teamManagerID,
			Sender:    &newUser.ID,
			Type:      TypeUserRegistered,
			Title:     "New team member",
			Message:   fmt.Sprintf("%s registered and joined your team", newUser.Name),
			Priority:  PriorityMedium,
		})
	}

	d.write(ctx, notes)
}

func (d *DispatcherImpl) ContactSubmitted(ctx context.Context, contactID primitive.ObjectID, name, subject string) {
	admins, err := d.users.FindByRole(ctx, models.RoleAdmin)
	if err != nil {
		d.logger.Warn("admin lookup failed for contact fan-out", zap.Error(err))
		return
	}
	var notes []Notification
	for _, admin := range admins {
		notes = append(notes, Notification{
			Recipient: admin.ID,
			Type:      TypeContactSubmitted,
			Title:     subject,
			Message:   fmt.Sprintf("New contact message from %s: %s", name, subject),
			Priority:  PriorityMedium,
			ContactID: &contactID,
		})
	}
	d.write(ctx, notes)
}

func (d *DispatcherImpl) PasswordChanged(ctx context.Context, userID primitive.ObjectID) {
	d.write(ctx, []Notification{{
		Recipient: userID,
		Type:      TypePasswordChanged,
		Title:     "Password changed",
		Message:   "Your password was changed. If this wasn't you, contact an administrator.",
		Priority:  PriorityHigh,
	}})
}

func (d *DispatcherImpl) DeadlineReminder(ctx context.Context, task TaskInfo, projectName string) {
	var notes []Notification
	seen := map[primitive.ObjectID]bool{}
	for _, assignee := range task.Assignees {
		if seen[assignee] {
			continue
		}
		seen[assignee] = true
		notes = append(notes, Notification{
			Recipient: assignee,
			Type:      TypeDeadlineReminder,
			Title:     task.Title,
			Message:   fmt.Sprintf("Task %q in project %q is due within 24 hours", task.Title, projectName),
			Priority:  PriorityHigh,
			ProjectID: &task.ProjectID,
			TaskID:    &task.ID,
		})
	}
	d.write(ctx, notes)
}

func (d *DispatcherImpl) ChatMessage(ctx context.Context, actor Actor, chatID primitive.ObjectID, recipients []primitive.ObjectID, preview string) {
	var notes []Notification
	seen := map[primitive.ObjectID]bool{actor.ID: true}
	for _, recipient := range recipients {
		if seen[recipient] {
			continue
		}
		seen[recipient] = true
		notes = append(notes, Notification{
			Recipient: recipient,
			Sender:    &actor.ID,
			Type:      TypeChatMessage,
			Title:     actor.Name,
			Message:   preview,
			Priority:  PriorityLow,
			ChatID:    &chatID,
		})
	}
	d.write(ctx, notes)
}
