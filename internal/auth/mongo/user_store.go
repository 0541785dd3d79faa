// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mongo implements auth.UserStore on MongoDB.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/holomush/authd/internal/auth"
)

// Collection and index names.
const (
	CollectionName = "users"
	emailIndexName = "users_email_key"
)

// collection is the subset of *mongo.Collection used by UserStore.
type collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

type userDocument struct {
	ID           bson.ObjectID `bson:"_id"`
	Email        string        `bson:"email"`
	Name         string        `bson:"name"`
	PasswordHash string        `bson:"password_hash"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func (d userDocument) user() *auth.User {
	return &auth.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// UserStore implements auth.UserStore using a MongoDB collection.
type UserStore struct {
	users collection
}

// NewUserStore creates a UserStore over db's users collection. Call
// EnsureIndexes before serving traffic so email uniqueness is enforced.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{users: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique email index if it does not exist.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return oops.Code("USER_INDEX_FAILED").
			With("operation", "create email index").
			Wrap(classify(err))
	}
	return nil
}

// FindByEmail retrieves a user by email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_FAILED").
			With("operation", "find user by email").
			With("email", email).
			Wrap(classify(err))
	}
	return doc.user(), nil
}

// Insert stores a new user with a fresh ObjectID.
func (s *UserStore) Insert(ctx context.Context, fields auth.NewUser) (*auth.User, error) {
	doc := userDocument{
		ID:           bson.NewObjectID(),
		Email:        fields.Email,
		Name:         fields.Name,
		PasswordHash: fields.PasswordHash,
		CreatedAt:    fields.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt:    fields.UpdatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return nil, oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			With("email", fields.Email).
			Wrap(classify(err))
	}
	return doc.user(), nil
}

// classify marks driver errors with the store error kinds Service understands.
func classify(err error) error {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return auth.DuplicateEmail(err)
	case mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return auth.StoreUnavailable(err)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == codeUnauthorized || cmdErr.Code == codeAuthenticationFailed) {
		return auth.StoreUnavailable(err)
	}
	return err
}

// Server error codes for credential problems.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

// Compile-time interface check.
var _ auth.UserStore = (*UserStore)(nil)
