package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SpotFields are the vehicle details and rating state of a spot.
// RatingCount always equals len(Ratings); UserRating holds each rater's id once.
type SpotFields struct {
	Car         string    `bson:"car" json:"car"`
	Type        string    `bson:"type" json:"type"`
	Engine      string    `bson:"engine" json:"engine"`
	Horsepower  float64   `bson:"horsepower" json:"horsepower"`
	Image       string    `bson:"image" json:"image"`
	RatingCount int       `bson:"ratingCount" json:"ratingCount"`
	Ratings     []float64 `bson:"ratings" json:"ratings"`
	UserRating  []string  `bson:"userRating" json:"userRating"`
}

// Spot is the persisted spot document.
type Spot struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SpotFields `bson:",inline"`
	Comments   []primitive.ObjectID `bson:"comments" json:"comments"`
	Author     primitive.ObjectID   `bson:"author" json:"author"`
}

// SpotWithAuthor is a spot with its author resolved.
type SpotWithAuthor struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	SpotFields `bson:",inline"`
	Comments   []primitive.ObjectID `bson:"comments" json:"comments"`
	Author     *User                `bson:"author" json:"author"`
}

// SpotDetail is a spot with its author, its comments and their authors resolved.
type SpotDetail struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	SpotFields `bson:",inline"`
	Comments   []CommentWithAuthor `bson:"comments" json:"comments"`
	Author     *User               `bson:"author" json:"author"`
}

// NewSpot builds an unrated spot owned by author.
func NewSpot(fields SpotFields, author primitive.ObjectID) Spot {
	fields.RatingCount = 0
	fields.Ratings = []float64{}
	fields.UserRating = []string{}
	return Spot{
		SpotFields: fields,
		Comments:   []primitive.ObjectID{},
		Author:     author,
	}
}
