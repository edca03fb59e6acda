package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// UserProfile holds the descriptive fields shared by every user view.
type UserProfile struct {
	Username  string `bson:"username" json:"username"`
	FirstName string `bson:"firstname,omitempty" json:"firstname,omitempty"`
	LastName  string `bson:"lastname,omitempty" json:"lastname,omitempty"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	Car       string `bson:"car,omitempty" json:"car,omitempty"`
	Camera    string `bson:"camera,omitempty" json:"camera,omitempty"`
}

// User is the persisted account document. Spots references the spots the user owns.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserProfile  `bson:",inline"`
	PasswordHash string               `bson:"password" json:"-"`
	Spots        []primitive.ObjectID `bson:"spots" json:"spots"`
}

// UserWithSpots is a user with its spot references resolved.
type UserWithSpots struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	UserProfile `bson:",inline"`
	Spots       []Spot `bson:"spots" json:"spots"`
}
