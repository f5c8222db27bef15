package api

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"doozy-api/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	InsertUser(ctx context.Context, user domain.User) (primitive.ObjectID, error)
	InsertTask(ctx context.Context, task domain.Task) (primitive.ObjectID, error)
	FetchTasks(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Task, error)
	FindTask(ctx context.Context, ownerID, taskID primitive.ObjectID) (domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID primitive.ObjectID, update domain.TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID primitive.ObjectID) (domain.Task, error)
	Ping(ctx context.Context) error
}

// Authenticator is implemented by types able to issue identity tokens and
// resolve Authorization headers back to subject ids.
type Authenticator interface {
	Issue(subjectID string) (string, error)
	SubjectFromAuthHeader(h string) (string, error)
}
