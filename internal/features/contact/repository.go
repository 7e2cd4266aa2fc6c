package contact

import (
	"context"
	"time"

	"taskpilot/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	FindByID(ctx context.Context, id string) (*Contact, error)
	List(ctx context.Context, status ContactStatus, limit, offset int64) ([]Contact, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status ContactStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ContactRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewContactRepository(mongodb *database.MongodbDB) ContactRepository {
	return &ContactRepositoryImpl{
		Collection: mongodb.DB.Collection("contacts"),
	}
}

func (r *ContactRepositoryImpl) Create(ctx context.Context, contact *Contact) error {
	if contact.ID.IsZero() {
		contact.ID = primitive.NewObjectID()
	}
	contact.Status = StatusUnread
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = contact.CreatedAt
	_, err := r.Collection.InsertOne(ctx, contact)
	return err
}

func (r *ContactRepositoryImpl) FindByID(ctx context.Context, id string) (*Contact, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var contact Contact
	if err := r.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepositoryImpl) List(ctx context.Context, status ContactStatus, limit, offset int64) ([]Contact, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
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

	var contacts []Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

func (r *ContactRepositoryImpl) UpdateStatus(ctx context.Context, id primitive.ObjectID, status ContactStatus) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	return err
}

func (r *ContactRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
