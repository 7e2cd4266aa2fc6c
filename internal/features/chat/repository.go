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

type ChatRepository interface {
	Create(ctx context.Context, chat *Chat) error
	FindByChatID(ctx context.Context, chatID string) (*Chat, error)
	// FindDirect matches the active direct chat holding exactly this pair.
	FindDirect(ctx context.Context, a, b primitive.ObjectID) (*Chat, error)
	FindAdminManager(ctx context.Context, a, b primitive.ObjectID) (*Chat, error)
	FindByTeam(ctx context.Context, teamID primitive.ObjectID) (*Chat, error)
	ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]Chat, error)
	SetLastMessage(ctx context.Context, id primitive.ObjectID, lm LastMessage) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	AddParticipant(ctx context.Context, id, userID primitive.ObjectID) error
	RemoveParticipant(ctx context.Context, id, userID primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type ChatRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewChatRepository(mongodb *database.MongodbDB) ChatRepository {
	return &ChatRepositoryImpl{
		Collection: mongodb.DB.Collection("chats"),
	}
}

func (r *ChatRepositoryImpl) Create(ctx context.Context, chat *Chat) error {
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	chat.IsActive = true
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	_, err := r.Collection.InsertOne(ctx, chat)
	return err
}

func (r *ChatRepositoryImpl) FindByChatID(ctx context.Context, chatID string) (*Chat, error) {
	var chat Chat
	if err := r.Collection.FindOne(ctx, bson.M{"chat_id": chatID, "is_active": true}).Decode(&chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepositoryImpl) FindDirect(ctx context.Context, a, b primitive.ObjectID) (*Chat, error) {
	var chat Chat
	err := r.Collection.FindOne(ctx, bson.M{
		"chat_type":    TypeDirect,
		"is_active":    true,
		"participants": bson.M{"$all": bson.A{a, b}, "$size": 2},
	}).Decode(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepositoryImpl) FindAdminManager(ctx context.Context, a, b primitive.ObjectID) (*Chat, error) {
	var chat Chat
	err := r.Collection.FindOne(ctx, bson.M{
		"chat_type":    TypeAdminManager,
		"is_active":    true,
		"participants": bson.M{"$all": bson.A{a, b}, "$size": 2},
	}).Decode(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepositoryImpl) FindByTeam(ctx context.Context, teamID primitive.ObjectID) (*Chat, error) {
	var chat Chat
	err := r.Collection.FindOne(ctx, bson.M{
		"chat_type": TypeTeam,
		"is_active": true,
		"team_id":   teamID,
	}).Decode(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepositoryImpl) ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, bson.M{"participants": userID, "is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chats []Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *ChatRepositoryImpl) SetLastMessage(ctx context.Context, id primitive.ObjectID, lm LastMessage) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_message": lm, "updated_at": time.Now()}},
	)
	return err
}

func (r *ChatRepositoryImpl) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	return err
}

func (r *ChatRepositoryImpl) AddParticipant(ctx context.Context, id, userID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"participants": userID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *ChatRepositoryImpl) RemoveParticipant(ctx context.Context, id, userID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"participants": userID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *ChatRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
