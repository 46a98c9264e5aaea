// internal/app/store/communities/communitystore.go
package communitystore

// Terminology: Community Identifiers
//   - CommunityID / id: the MongoDB ObjectID (_id) of a community document
//   - PublicID: the stable URL-facing ID, either the identity provider's
//     organization ID ("org_...") or a locally minted "loc_<uuid>"
//   - ExternalID: the identity provider's organization ID; only set on
//     communities that mirror a provider organization

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/threadhive/threadhive/internal/app/system/communityref"
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateUsername = errors.New("a community with this username already exists")
	ErrNotFound          = errors.New("community not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("communities")}
}

// CreateParams carries the fields for a new community.
type CreateParams struct {
	Name      string
	Username  string
	Image     string
	Bio       string
	Private   bool
	CreatedBy primitive.ObjectID

	// ExternalID links the community to a provider organization. Empty for
	// purely local communities.
	ExternalID string
}

// Create inserts a new community with the creator as its first member.
// Provider-linked communities reuse the organization ID as public ID;
// local ones get a freshly minted "loc_" ID.
func (s *Store) Create(ctx context.Context, p CreateParams) (models.Community, error) {
	now := time.Now().UTC()
	username := strings.ToLower(p.Username)

	publicID := p.ExternalID
	if publicID == "" {
		publicID = communityref.PublicPrefix + uuid.NewString()
	}

	comm := models.Community{
		ID:         primitive.NewObjectID(),
		PublicID:   publicID,
		ExternalID: p.ExternalID,
		Name:       p.Name,
		NameCI:     text.Fold(p.Name),
		Username:   username,
		UsernameCI: text.Fold(username),
		Image:      p.Image,
		Bio:        p.Bio,
		Private:    p.Private,
		CreatedBy:  p.CreatedBy,
		Members:    []primitive.ObjectID{p.CreatedBy},
		Threads:    []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := s.c.InsertOne(ctx, comm); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Community{}, ErrDuplicateUsername
		}
		return models.Community{}, err
	}
	return comm, nil
}

// GetByRef resolves a community by whichever identifier the caller holds.
func (s *Store) GetByRef(ctx context.Context, ref communityref.Ref) (models.Community, error) {
	var comm models.Community
	err := s.c.FindOne(ctx, ref.Filter()).Decode(&comm)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Community{}, ErrNotFound
	}
	if err != nil {
		return models.Community{}, err
	}
	return comm, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Community, error) {
	return s.GetByRef(ctx, communityref.FromObjectID(id))
}

// GetByExternalID loads the community mirroring the given organization.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (models.Community, error) {
	return s.GetByRef(ctx, communityref.FromExternalID(externalID))
}

// ListExternal returns every community that mirrors a provider
// organization, for reconciliation diffs.
func (s *Store) ListExternal(ctx context.Context) ([]models.Community, error) {
	return s.Find(ctx, bson.M{"external_id": bson.M{"$exists": true, "$ne": ""}})
}

// ListByMember returns the communities a user belongs to, newest first.
func (s *Store) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Community, error) {
	return s.Find(ctx, bson.M{"members": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// UpdateDetails overwrites the provider-owned fields of a linked community.
// Returns the number of documents modified (0 when already current).
func (s *Store) UpdateDetails(ctx context.Context, id primitive.ObjectID, name, username, image string) (int64, error) {
	username = strings.ToLower(username)
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"name":        name,
			"name_ci":     text.Fold(name),
			"username":    username,
			"username_ci": text.Fold(username),
			"image":       image,
			"updated_at":  time.Now().UTC(),
		},
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return 0, ErrDuplicateUsername
		}
		return 0, err
	}
	return res.ModifiedCount, nil
}

// AddMember adds the user to the member list. Returns true when the user
// was not already a member.
func (s *Store) AddMember(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return res.ModifiedCount == 1, nil
}

// RemoveMember removes the user from the member list. Returns true when
// the user was a member.
func (s *Store) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"members": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return res.ModifiedCount == 1, nil
}

// AddThread appends a thread reference to the community.
func (s *Store) AddThread(ctx context.Context, id, threadID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"threads": threadID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Delete removes a community document. Member back-references are cleaned
// up by the caller.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Find returns communities matching the filter with the given options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Community, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var comms []models.Community
	if err := cur.All(ctx, &comms); err != nil {
		return nil, err
	}
	return comms, nil
}

// Count returns the number of communities matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
