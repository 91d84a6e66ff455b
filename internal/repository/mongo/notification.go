// Package mongo stores the notification inbox in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
)

var errNilCollection = errors.New("mongo collection is nil")

// Connect opens a client and pings it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

type notificationRepository struct {
	coll *mongo.Collection
}

// NewNotificationRepository wraps coll. Call EnsureIndexes once at startup so
// dedup keys are enforced by the server.
func NewNotificationRepository(coll *mongo.Collection) repository.NotificationRepository {
	return &notificationRepository{coll: coll}
}

// EnsureIndexes creates the sparse unique dedup index and the listing index.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	if coll == nil {
		return errNilCollection
	}
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "dedup_key", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"dedup_key": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if r.coll == nil {
		return errNilCollection
	}
	logger.ExternalServiceCall("mongo", "InsertOne", "notificationID", n.ID)
	_, err := r.coll.InsertOne(ctx, n)
	logger.ExternalServiceResult("mongo", "InsertOne", err, "notificationID", n.ID)
	if mongo.IsDuplicateKeyError(err) {
		return domain.NewValidationError("dedup_key", "notification %q already exists", n.DedupKey)
	}
	return err
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *domain.Notification) (bool, error) {
	err := r.Create(ctx, n)
	if domain.IsValidation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *notificationRepository) List(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, int, error) {
	if r.coll == nil {
		return nil, 0, errNilCollection
	}
	query := bson.M{}
	if filter.UnreadOnly {
		query["read"] = false
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notes := []domain.Notification{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, 0, err
	}
	return notes, int(total), nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id string) error {
	if r.coll == nil {
		return errNilCollection
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.NewNotFoundError("notification", id)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	if r.coll == nil {
		return 0, errNilCollection
	}
	res, err := r.coll.UpdateMany(ctx, bson.M{"read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	if r.coll == nil {
		return errNilCollection
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.NewNotFoundError("notification", id)
	}
	return nil
}
