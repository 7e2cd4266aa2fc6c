package project

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

type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]Project, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error
	RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error
	AddAttachment(ctx context.Context, id primitive.ObjectID, attachment models.Attachment) error
	RemoveAttachment(ctx context.Context, id, attachmentID primitive.ObjectID) error
	RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error
}

type ProjectRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewProjectRepository(mongodb *database.MongodbDB) ProjectRepository {
	return &ProjectRepositoryImpl{
		Collection: mongodb.DB.Collection("projects"),
	}
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *Project) error {
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	if project.Comments == nil {
		project.Comments = []models.Comment{}
	}
	if project.Attachments == nil {
		project.Attachments = []models.Attachment{}
	}
	_, err := r.Collection.InsertOne(ctx, project)
	return err
}

func (r *ProjectRepositoryImpl) FindByID(ctx context.Context, id string) (*Project, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var project Project
	if err := r.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Project, int64, error) {
	if filter == nil {
		filter = bson.M{}
	}

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var projects []Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *ProjectRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now()
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (r *ProjectRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *ProjectRepositoryImpl) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"comments": comment},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *ProjectRepositoryImpl) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"comments": bson.M{"_id": commentID}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *ProjectRepositoryImpl) AddAttachment(ctx context.Context, id primitive.ObjectID, attachment models.Attachment) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"attachments": attachment},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *ProjectRepositoryImpl) RemoveAttachment(ctx context.Context, id, attachmentID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"attachments": bson.M{"_id": attachmentID}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *ProjectRepositoryImpl) RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.Collection.UpdateMany(ctx,
		bson.M{"team_members": userID},
		bson.M{
			"$pull": bson.M{"team_members": userID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}
