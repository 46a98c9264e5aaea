package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an onboarded test user with the given username.
// The external ID is derived from the username.
func (f *Fixtures) CreateUser(ctx context.Context, username string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	username = strings.ToLower(username)
	user := models.User{
		ID:          primitive.NewObjectID(),
		ExternalID:  "user_" + username,
		Username:    username,
		UsernameCI:  text.Fold(username),
		Name:        "Test " + username,
		NameCI:      text.Fold("Test " + username),
		Onboarded:   true,
		Threads:     []primitive.ObjectID{},
		Communities: []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateCommunity creates a local test community with the creator as its
// only member.
func (f *Fixtures) CreateCommunity(ctx context.Context, name string, createdBy primitive.ObjectID) models.Community {
	f.t.Helper()

	username := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	return f.insertCommunity(ctx, name, username, "", createdBy)
}

// CreateExternalCommunity creates a test community linked to a provider
// organization.
func (f *Fixtures) CreateExternalCommunity(ctx context.Context, name, externalID string, createdBy primitive.ObjectID) models.Community {
	f.t.Helper()

	username := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	return f.insertCommunity(ctx, name, username, externalID, createdBy)
}

func (f *Fixtures) insertCommunity(ctx context.Context, name, username, externalID string, createdBy primitive.ObjectID) models.Community {
	f.t.Helper()

	now := time.Now().UTC()
	publicID := externalID
	if publicID == "" {
		publicID = fmt.Sprintf("loc_test-%s", primitive.NewObjectID().Hex())
	}
	comm := models.Community{
		ID:         primitive.NewObjectID(),
		PublicID:   publicID,
		ExternalID: externalID,
		Name:       name,
		NameCI:     text.Fold(name),
		Username:   username,
		UsernameCI: text.Fold(username),
		CreatedBy:  createdBy,
		Members:    []primitive.ObjectID{createdBy},
		Threads:    []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("communities").InsertOne(ctx, comm)
	if err != nil {
		f.t.Fatalf("failed to create test community: %v", err)
	}

	return comm
}

// CreateThread creates a root test thread by the given author.
func (f *Fixtures) CreateThread(ctx context.Context, text string, author primitive.ObjectID) models.Thread {
	f.t.Helper()

	thread := models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    author,
		Children:  []primitive.ObjectID{},
		Likes:     []primitive.ObjectID{},
		Reposts:   []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}

	_, err := f.db.Collection("threads").InsertOne(ctx, thread)
	if err != nil {
		f.t.Fatalf("failed to create test thread: %v", err)
	}

	return thread
}
