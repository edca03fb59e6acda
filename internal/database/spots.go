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

// CreateSpot stores spot and appends its id to the author's spots.
func (s *Store) CreateSpot(ctx context.Context, spot models.Spot) (primitive.ObjectID, error) {
	return s.createAndLink(ctx, SpotsCollection, spot, func(ctx context.Context, id primitive.ObjectID) error {
		return s.pushReference(ctx, UsersCollection, spot.Author, "spots", id)
	})
}

func (s *Store) ListSpots(ctx context.Context) ([]models.SpotWithAuthor, error) {
	cursor, err := s.db.Collection(SpotsCollection).Aggregate(ctx, spotsWithAuthorPipeline())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	spots := make([]models.SpotWithAuthor, 0)
	if err := cursor.All(ctx, &spots); err != nil {
		return nil, err
	}
	return spots, nil
}

// FindSpot returns the bare spot document, or nil.
func (s *Store) FindSpot(ctx context.Context, id primitive.ObjectID) (*models.Spot, error) {
	var spot models.Spot
	err := s.db.Collection(SpotsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&spot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

// FindSpotDetail returns the spot with author, comments and comment authors
// resolved, or nil.
func (s *Store) FindSpotDetail(ctx context.Context, id primitive.ObjectID) (*models.SpotDetail, error) {
	cursor, err := s.db.Collection(SpotsCollection).Aggregate(ctx, spotDetailPipeline(id))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var spots []models.SpotDetail
	if err := cursor.All(ctx, &spots); err != nil {
		return nil, err
	}
	if len(spots) == 0 {
		return nil, nil
	}
	return &spots[0], nil
}

// DeleteSpot removes the spot, its reference on the owner and its comments.
func (s *Store) DeleteSpot(ctx context.Context, spot models.Spot) error {
	return s.inTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.db.Collection(SpotsCollection).DeleteOne(ctx, bson.M{"_id": spot.ID}); err != nil {
			return err
		}
		if _, err := s.db.Collection(UsersCollection).UpdateByID(ctx, spot.Author, bson.M{
			"$pull": bson.M{"spots": spot.ID},
		}); err != nil {
			return err
		}
		_, err := s.db.Collection(CommentsCollection).DeleteMany(ctx, bson.M{"spot": spot.ID})
		return err
	})
}

// RateSpot records star from userID in one conditional update. It returns nil
// when the spot does not exist or userID has already rated it.
func (s *Store) RateSpot(ctx context.Context, spotID primitive.ObjectID, userID string, star float64) (*models.Spot, error) {
	var spot models.Spot
	err := s.db.Collection(SpotsCollection).FindOneAndUpdate(
		ctx,
		rateFilter(spotID, userID),
		rateUpdate(userID, star),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&spot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

func rateFilter(spotID primitive.ObjectID, userID string) bson.M {
	return bson.M{
		"_id":        spotID,
		"userRating": bson.M{"$nin": bson.A{userID}},
	}
}

func rateUpdate(userID string, star float64) bson.M {
	return bson.M{
		"$inc":  bson.M{"ratingCount": 1},
		"$push": bson.M{"ratings": star, "userRating": userID},
	}
}

func lookupAuthor() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         UsersCollection,
			"localField":   "author",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$author",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$project", Value: bson.M{"author.password": 0}}},
	}
}

func spotsWithAuthorPipeline() mongo.Pipeline {
	return mongo.Pipeline(lookupAuthor())
}

func spotDetailPipeline(id primitive.ObjectID) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
	}
	pipeline = append(pipeline, lookupAuthor()...)

	comments := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$expr": bson.M{"$in": bson.A{"$_id", "$$commentIds"}}}}},
	}
	comments = append(comments, lookupAuthor()...)

	return append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":     CommentsCollection,
			"let":      bson.M{"commentIds": bson.M{"$ifNull": bson.A{"$comments", bson.A{}}}},
			"pipeline": comments,
			"as":       "resolvedComments",
		}}},
		inReferenceOrder("comments", "resolvedComments"),
		bson.D{{Key: "$project", Value: bson.M{"resolvedComments": 0}}},
	)
}

// inReferenceOrder replaces the id array in field with the matching documents
// from resolved, keeping the array's order. $lookup returns matches in
// collection order. Ids with no document are dropped.
func inReferenceOrder(field, resolved string) bson.D {
	ids := "$" + resolved + "._id"
	return bson.D{{Key: "$addFields", Value: bson.M{field: bson.M{"$map": bson.M{
		"input": bson.M{"$filter": bson.M{
			"input": bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}},
			"as":    "id",
			"cond":  bson.M{"$in": bson.A{"$$id", ids}},
		}},
		"as": "id",
		"in": bson.M{"$arrayElemAt": bson.A{"$" + resolved, bson.M{"$indexOfArray": bson.A{ids, "$$id"}}}},
	}}}}}
}
