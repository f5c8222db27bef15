package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"doozy-api/domain"
)

// ErrNotFound is returned when no document matches the given filter. For
// tasks this covers both a missing id and an id owned by another user; the
// two cases are indistinguishable on purpose.
var ErrNotFound = errors.New("not found")

// Storage provides access to the underlying document store.
type Storage struct {
	client *mongo.Client
	users  *mongo.Collection
	tasks  *mongo.Collection
}

// New connects to the document store and verifies the connection before
// returning. Callers own the lifecycle and must Close the storage on
// shutdown.
func New(ctx context.Context, uri, dbName string) (*Storage, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).SetStrict(true).SetDeprecationErrors(true)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}
	db := client.Database(dbName)
	return &Storage{
		client: client,
		users:  db.Collection("users"),
		tasks:  db.Collection("tasks"),
	}, nil
}

// Close tears down the store connection.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the store is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// FindUserByEmail looks up a user record by email. There is no unique index
// on email; uniqueness is enforced by the signup handler's pre-insert lookup,
// which leaves a race window between concurrent signups for the same email.
func (s *Storage) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// InsertUser persists a new user record and returns its generated id.
func (s *Storage) InsertUser(ctx context.Context, user domain.User) (primitive.ObjectID, error) {
	res, err := s.users.InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert user: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	return id, nil
}

// InsertTask persists a new task and returns its generated id. The caller is
// responsible for having set UserID to the authenticated owner.
func (s *Storage) InsertTask(ctx context.Context, task domain.Task) (primitive.ObjectID, error) {
	res, err := s.tasks.InsertOne(ctx, task)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert task: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("insert task: unexpected id type %T", res.InsertedID)
	}
	return id, nil
}

// FetchTasks retrieves all tasks owned by the given user, in store-native
// order.
func (s *Storage) FetchTasks(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Task, error) {
	cur, err := s.tasks.Find(ctx, bson.M{"userId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	tasks := []domain.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	return tasks, nil
}

// FindTask retrieves a single task scoped by owner.
func (s *Storage) FindTask(ctx context.Context, ownerID, taskID primitive.ObjectID) (domain.Task, error) {
	var task domain.Task
	err := s.tasks.FindOne(ctx, ownedTaskFilter(ownerID, taskID)).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

// UpdateTask atomically merges the supplied fields into the task matching
// (taskID, ownerID) and returns the post-update document. The ownership check
// and the mutation are a single store operation, so there is no window for a
// foreign update to slip through.
func (s *Storage) UpdateTask(ctx context.Context, ownerID, taskID primitive.ObjectID, update domain.TaskUpdate) (domain.Task, error) {
	if update.IsEmpty() {
		// An empty $set is rejected by the store; an empty update is a no-op
		// read of the current document.
		return s.FindTask(ctx, ownerID, taskID)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var task domain.Task
	err := s.tasks.FindOneAndUpdate(ctx, ownedTaskFilter(ownerID, taskID), bson.M{"$set": update.SetDocument()}, opts).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// DeleteTask atomically removes the task matching (taskID, ownerID) and
// returns the deleted document.
func (s *Storage) DeleteTask(ctx context.Context, ownerID, taskID primitive.ObjectID) (domain.Task, error) {
	var task domain.Task
	err := s.tasks.FindOneAndDelete(ctx, ownedTaskFilter(ownerID, taskID)).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("delete task: %w", err)
	}
	return task, nil
}

func ownedTaskFilter(ownerID, taskID primitive.ObjectID) bson.M {
	return bson.M{"_id": taskID, "userId": ownerID}
}
