package task

import (
	"context"
	"time"

	"taskpilot/internal/common/models"
	"taskpilot/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]Task, error)
	ListByAssignee(ctx context.Context, userID primitive.ObjectID) ([]Task, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
	AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error
	RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error
	AddAttachment(ctx context.Context, id primitive.ObjectID, attachment models.Attachment) error
	RemoveAttachment(ctx context.Context, id, attachmentID primitive.ObjectID) error
	RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error

	// FindDueWithin returns unfinished tasks whose due date falls inside
	// the window and that have not had a reminder sent yet.
	FindDueWithin(ctx context.Context, window time.Duration) ([]Task, error)
	MarkReminderSent(ctx context.Context, id primitive.ObjectID) error
}

type TaskRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTaskRepository(mongodb *database.MongodbDB) TaskRepository {
	return &TaskRepositoryImpl{
		Collection: mongodb.DB.Collection("tasks"),
	}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	if task.Assignees == nil {
		task.Assignees = []primitive.ObjectID{}
	}
	if task.Comments == nil {
		task.Comments = []models.Comment{}
	}
	if task.Attachments == nil {
		task.Attachments = []models.Attachment{}
	}
	_, err := r.Collection.InsertOne(ctx, task)
	return err
}

func (r *TaskRepositoryImpl) FindByID(ctx context.Context, id string) (*Task, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var task Task
	if err := r.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) list(ctx context.Context, filter bson.M) ([]Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepositoryImpl) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]Task, error) {
	return r.list(ctx, bson.M{"project_id": projectID})
}

func (r *TaskRepositoryImpl) ListByAssignee(ctx context.Context, userID primitive.ObjectID) ([]Task, error) {
	return r.list(ctx, bson.M{"assignees": userID})
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now()
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *TaskRepositoryImpl) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := r.Collection.DeleteMany(ctx, bson.M{"project_id": projectID})
	return err
}

func (r *TaskRepositoryImpl) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"comments": comment},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *TaskRepositoryImpl) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"comments": bson.M{"_id": commentID}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *TaskRepositoryImpl) AddAttachment(ctx context.Context, id primitive.ObjectID, attachment models.Attachment) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"attachments": attachment},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *TaskRepositoryImpl) RemoveAttachment(ctx context.Context, id, attachmentID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"attachments": bson.M{"_id": attachmentID}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *TaskRepositoryImpl) RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.Collection.UpdateMany(ctx,
		bson.M{"assignees": userID},
		bson.M{
			"$pull": bson.M{"assignees": userID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *TaskRepositoryImpl) FindDueWithin(ctx context.Context, window time.Duration) ([]Task, error) {
	now := time.Now()
	return r.list(ctx, bson.M{
		"status":           bson.M{"$ne": StatusCompleted},
		"due_date":         bson.M{"$gte": now, "$lte": now.Add(window)},
		"reminder_sent_at": nil,
	})
}

func (r *TaskRepositoryImpl) MarkReminderSent(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"reminder_sent_at": time.Now()}},
	)
	return err
}
