package team

import (
	"context"
	"time"

	"taskpilot/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	FindByID(ctx context.Context, id string) (*Team, error)
	FindByName(ctx context.Context, name string) (*Team, error)
	HasManagedTeam(ctx context.Context, managerID primitive.ObjectID) (bool, error)
	List(ctx context.Context, limit, offset int64) ([]Team, int64, error)
	AddMember(ctx context.Context, teamID, userID primitive.ObjectID) error
	RemoveMember(ctx context.Context, teamID, userID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error

	// WithTransaction runs fn inside a session transaction when the
	// deployment supports it; the caller handles the fallback.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TeamRepositoryImpl struct {
	client     *mongo.Client
	Collection *mongo.Collection
}

func NewTeamRepository(mongodb *database.MongodbDB) TeamRepository {
	return &TeamRepositoryImpl{
		client:     mongodb.Client,
		Collection: mongodb.DB.Collection("teams"),
	}
}

func (r *TeamRepositoryImpl) Create(ctx context.Context, team *Team) error {
	if team.ID.IsZero() {
		team.ID = primitive.NewObjectID()
	}
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt
	_, err := r.Collection.InsertOne(ctx, team)
	return err
}

func (r *TeamRepositoryImpl) FindByID(ctx context.Context, id string) (*Team, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var team Team
	if err := r.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepositoryImpl) FindByName(ctx context.Context, name string) (*Team, error) {
	var team Team
	if err := r.Collection.FindOne(ctx, bson.M{"name": name}).Decode(&team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepositoryImpl) HasManagedTeam(ctx context.Context, managerID primitive.ObjectID) (bool, error) {
	count, err := r.Collection.CountDocuments(ctx, bson.M{"manager": managerID})
	return count > 0, err
}

func (r *TeamRepositoryImpl) List(ctx context.Context, limit, offset int64) ([]Team, int64, error) {
	total, err := r.Collection.CountDocuments(ctx, bson.M{})
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

	cursor, err := r.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var teams []Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

func (r *TeamRepositoryImpl) AddMember(ctx context.Context, teamID, userID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": teamID},
		bson.M{
			"$addToSet": bson.M{"members": userID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *TeamRepositoryImpl) RemoveMember(ctx context.Context, teamID, userID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": teamID},
		bson.M{
			"$pull": bson.M{"members": userID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *TeamRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *TeamRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *TeamRepositoryImpl) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
