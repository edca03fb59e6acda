package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("document not found")

// Store is the only code that talks to the users, spots and comments
// collections.
type Store struct {
	db              *mongo.Database
	useTransactions bool
	logger          *zap.Logger
}

// NewStore wraps db. With useTransactions set, create-and-link writes run in a
// multi-document transaction (replica set required); otherwise a failed link
// is compensated by deleting the document that was just inserted.
func NewStore(db *mongo.Database, useTransactions bool, logger *zap.Logger) *Store {
	return &Store{db: db, useTransactions: useTransactions, logger: logger}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return s.db.Client().Ping(ctx, readpref.Primary())
}

// inTransaction runs fn inside a transaction when enabled. fn may be retried
// by the driver on transient errors.
func (s *Store) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.useTransactions {
		return fn(ctx)
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// createAndLink inserts doc into collection and then calls link with the new
// id. Both writes commit together, or the insert is undone.
func (s *Store) createAndLink(ctx context.Context, collection string, doc interface{}, link func(ctx context.Context, id primitive.ObjectID) error) (primitive.ObjectID, error) {
	var id primitive.ObjectID
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		res, err := s.db.Collection(collection).InsertOne(ctx, doc)
		if err != nil {
			return err
		}
		id, _ = res.InsertedID.(primitive.ObjectID)

		if err := link(ctx, id); err != nil {
			if !s.useTransactions {
				s.compensateInsert(collection, id, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return id, nil
}

func (s *Store) compensateInsert(collection string, id primitive.ObjectID, cause error) {
	log := s.logger.With(zap.String("collection", collection), zap.String("id", id.Hex()))
	log.Error("link write failed, removing inserted document", zap.Error(cause))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		log.Error("compensating delete failed, document left unlinked", zap.Error(err))
	}
}

// pushReference appends ref to the array field of the document with the given
// id. A missing parent is logged, not treated as a failure.
func (s *Store) pushReference(ctx context.Context, collection string, id primitive.ObjectID, field string, ref primitive.ObjectID) error {
	res, err := s.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$push": bson.M{field: ref}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		s.logger.Warn("reference parent not found",
			zap.String("collection", collection),
			zap.String("id", id.Hex()),
			zap.String("field", field),
		)
	}
	return nil
}
