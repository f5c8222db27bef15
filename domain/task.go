package domain

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task represents a single to-do item owned by exactly one user.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Completed   bool               `bson:"completed" json:"completed"`
}

// TaskUpdate carries a partial set of task fields for a merge-style update.
// Nil fields leave the stored value untouched.
type TaskUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// IsEmpty reports whether the update supplies no fields at all.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil
}

// SetDocument builds the $set payload containing only the supplied fields.
func (u TaskUpdate) SetDocument() bson.M {
	set := bson.M{}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Completed != nil {
		set["completed"] = *u.Completed
	}
	return set
}
