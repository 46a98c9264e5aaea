// internal/app/store/users/userstore.go
package userstore

// Terminology: User Identifiers
//   - UserID / userID: the MongoDB ObjectID (_id) of a user document
//   - ExternalID: the identity provider's user ID ("user_..."), the key
//     presented by authenticated requests

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateUsername = errors.New("a user with this username already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// UpsertParams carries the profile fields set on create/update.
type UpsertParams struct {
	ExternalID string
	Username   string
	Name       string
	Bio        string
	Image      string
}

// Upsert creates or updates the user keyed by external ID. A completed
// profile update marks the user onboarded. Returns the stored document.
func (s *Store) Upsert(ctx context.Context, p UpsertParams) (models.User, error) {
	now := time.Now().UTC()
	username := strings.ToLower(p.Username)

	update := bson.M{
		"$set": bson.M{
			"username":    username,
			"username_ci": text.Fold(username),
			"name":        p.Name,
			"name_ci":     text.Fold(p.Name),
			"bio":         p.Bio,
			"image":       p.Image,
			"onboarded":   true,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"external_id": p.ExternalID,
			"threads":     []primitive.ObjectID{},
			"communities": []primitive.ObjectID{},
			"created_at":  now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"external_id": p.ExternalID}, update, opts).Decode(&u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByExternalID loads a user by the identity provider's ID.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&u)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByIDs loads multiple users by ObjectID, for hydrating member lists.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddCommunity appends the community reference to the user's list
// (idempotent).
func (s *Store) AddCommunity(ctx context.Context, userID, communityID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"communities": communityID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveCommunity removes the community reference from the user's list.
func (s *Store) RemoveCommunity(ctx context.Context, userID, communityID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"communities": communityID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveCommunityFromAll strips the community reference from every user,
// for community deletion.
func (s *Store) RemoveCommunityFromAll(ctx context.Context, communityID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx, bson.M{"communities": communityID}, bson.M{
		"$pull": bson.M{"communities": communityID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// AddThread appends a thread reference to the author's list.
func (s *Store) AddThread(ctx context.Context, userID, threadID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$push": bson.M{"threads": threadID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Find returns users matching the filter with the given options. Callers
// build the filter (search regex, exclusions) and pagination options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
