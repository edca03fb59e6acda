package sessions

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"spotted/internal/models"
)

var ErrNoSession = errors.New("no session")

// Store persists session records keyed by the hash of an opaque token.
type Store interface {
	Create(ctx context.Context, tokenHash string, user models.User, expiresAt time.Time) (*models.Session, error)
	Get(ctx context.Context, tokenHash string) (*models.Session, error)
	Delete(ctx context.Context, tokenHash string) error
}

// MongoStore keeps sessions in a collection with a TTL index on expiresAt.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection), now: time.Now}
}

func (s *MongoStore) Create(ctx context.Context, tokenHash string, user models.User, expiresAt time.Time) (*models.Session, error) {
	session := models.Session{
		TokenHash: tokenHash,
		User:      user,
		CreatedAt: s.now(),
		ExpiresAt: expiresAt,
	}
	res, err := s.coll.InsertOne(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID, _ = res.InsertedID.(primitive.ObjectID)
	return &session, nil
}

// Get ignores records past expiresAt even if the TTL monitor has not removed
// them yet.
func (s *MongoStore) Get(ctx context.Context, tokenHash string) (*models.Session, error) {
	var session models.Session
	err := s.coll.FindOne(ctx, bson.M{
		"tokenHash": tokenHash,
		"expiresAt": bson.M{"$gt": s.now()},
	}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MongoStore) Delete(ctx context.Context, tokenHash string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"tokenHash": tokenHash})
	return err
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
