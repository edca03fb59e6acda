package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureIndexes creates every index the application relies on. Failures are
// logged and the first one is returned; startup continues either way.
func EnsureIndexes(db *mongo.Database, logger *zap.Logger) error {
	var first error
	for _, ensure := range []func(*mongo.Database, *zap.Logger) error{
		EnsureUserIndexes,
		EnsureSpotIndexes,
		EnsureCommentIndexes,
		EnsureSessionIndexes,
	} {
		if err := ensure(db, logger); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func EnsureUserIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndex(db, logger, UsersCollection, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
		Options: options.Index().
			SetName("username_unique").
			SetUnique(true),
	})
}

func EnsureSpotIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndex(db, logger, SpotsCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "author", Value: 1}},
		Options: options.Index().SetName("author_index"),
	})
}

func EnsureCommentIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndex(db, logger, CommentsCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "spot", Value: 1}},
		Options: options.Index().SetName("spot_index"),
	})
}

// EnsureSessionIndexes lets the server expire sessions on its own once
// expiresAt has passed.
func EnsureSessionIndexes(db *mongo.Database, logger *zap.Logger) error {
	if err := createIndex(db, logger, SessionsCollection, mongo.IndexModel{
		Keys: bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().
			SetName("expiresAt_ttl").
			SetExpireAfterSeconds(0),
	}); err != nil {
		return err
	}
	return createIndex(db, logger, SessionsCollection, mongo.IndexModel{
		Keys: bson.D{{Key: "tokenHash", Value: 1}},
		Options: options.Index().
			SetName("tokenHash_unique").
			SetUnique(true),
	})
}

func createIndex(db *mongo.Database, logger *zap.Logger, collection string, model mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	name := ""
	if model.Options != nil && model.Options.Name != nil {
		name = *model.Options.Name
	}
	log := logger.With(zap.String("collection", collection), zap.String("index", name))

	if _, err := db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		log.Warn("index creation failed", zap.Error(err))
		return err
	}
	log.Debug("index ensured")
	return nil
}
