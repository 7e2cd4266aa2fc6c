package chat

import (
	"context"
	"time"

	"taskpilot/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	ListByChat(ctx context.Context, chatID primitive.ObjectID, limit, offset int64) ([]Message, error)
	// MarkRead appends a read receipt to every message in the chat the
	// user has not read yet. The $ne filter makes a repeat call a no-op.
	MarkRead(ctx context.Context, chatID, userID primitive.ObjectID) error
	SoftDelete(ctx context.Context, id, sender primitive.ObjectID) (bool, error)
}

type MessageRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMessageRepository(mongodb *database.MongodbDB) MessageRepository {
	return &MessageRepositoryImpl{
		Collection: mongodb.DB.Collection("messages"),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *Message) error {
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	message.CreatedAt = time.Now()
	if message.ReadBy == nil {
		message.ReadBy = []ReadReceipt{}
	}
	_, err := r.Collection.InsertOne(ctx, message)
	return err
}

func (r *MessageRepositoryImpl) ListByChat(ctx context.Context, chatID primitive.ObjectID, limit, offset int64) ([]Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}

	cursor, err := r.Collection.Find(ctx, bson.M{"chat_id": chatID, "is_deleted": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepositoryImpl) MarkRead(ctx context.Context, chatID, userID primitive.ObjectID) error {
	_, err := r.Collection.UpdateMany(ctx,
		bson.M{
			"chat_id":      chatID,
			"sender":       bson.M{"$ne": userID},
			"read_by.user": bson.M{"$ne": userID},
		},
		bson.M{"$push": bson.M{"read_by": ReadReceipt{User: userID, At: time.Now()}}},
	)
	return err
}

func (r *MessageRepositoryImpl) SoftDelete(ctx context.Context, id, sender primitive.ObjectID) (bool, error) {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "sender": sender},
		bson.M{"$set": bson.M{"is_deleted": true}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
