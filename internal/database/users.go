package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spotted/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, user models.User) (primitive.ObjectID, error) {
	if user.Spots == nil {
		user.Spots = []primitive.ObjectID{}
	}
	res, err := s.db.Collection(UsersCollection).InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// FindUserByUsername returns ErrNotFound when no account has that username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.Collection(UsersCollection).FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	return user, err
}

// UpdateUser merges set into the user document and returns the result, or nil
// when id matches nothing.
func (s *Store) UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	var user models.User
	var err error
	if len(set) == 0 {
		err = s.db.Collection(UsersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	} else {
		err = s.db.Collection(UsersCollection).FindOneAndUpdate(
			ctx,
			bson.M{"_id": id},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&user)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserWithSpots returns the user with its spots resolved, or nil.
func (s *Store) FindUserWithSpots(ctx context.Context, id primitive.ObjectID) (*models.UserWithSpots, error) {
	cursor, err := s.db.Collection(UsersCollection).Aggregate(ctx, userWithSpotsPipeline(id))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.UserWithSpots
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func userWithSpotsPipeline(id primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         SpotsCollection,
			"localField":   "spots",
			"foreignField": "_id",
			"as":           "resolvedSpots",
		}}},
		inReferenceOrder("spots", "resolvedSpots"),
		{{Key: "$project", Value: bson.M{"password": 0, "resolvedSpots": 0}}},
	}
}
