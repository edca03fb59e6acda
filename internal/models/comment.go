package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Comment struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Author  primitive.ObjectID `bson:"author" json:"author"`
	Spot    primitive.ObjectID `bson:"spot" json:"spot"`
	Comment string             `bson:"comment" json:"comment"`
}

type CommentWithAuthor struct {
	ID      primitive.ObjectID `bson:"_id" json:"_id"`
	Author  *User              `bson:"author" json:"author"`
	Spot    primitive.ObjectID `bson:"spot" json:"spot"`
	Comment string             `bson:"comment" json:"comment"`
}
