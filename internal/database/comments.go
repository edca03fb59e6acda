package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"spotted/internal/models"
)

// CreateComment stores comment and appends its id to the parent spot.
func (s *Store) CreateComment(ctx context.Context, comment models.Comment) (primitive.ObjectID, error) {
	return s.createAndLink(ctx, CommentsCollection, comment, func(ctx context.Context, id primitive.ObjectID) error {
		return s.pushReference(ctx, SpotsCollection, comment.Spot, "comments", id)
	})
}
