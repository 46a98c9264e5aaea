// internal/app/store/threads/threadstore.go
package threadstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
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
	ErrNotFound  = errors.New("thread not found")
	ErrEmptyText = errors.New("thread text is empty")
)

// Thread text is stored as plain text; any markup is stripped on write.
var textPolicy = bluemonday.StrictPolicy()

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("threads")}
}

// CreateParams carries the fields for a new root thread.
type CreateParams struct {
	Text      string
	Image     string
	Author    primitive.ObjectID
	Community *primitive.ObjectID
}

// Create inserts a root thread. Author and community back-references are
// maintained by the caller.
func (s *Store) Create(ctx context.Context, p CreateParams) (models.Thread, error) {
	text := strings.TrimSpace(textPolicy.Sanitize(p.Text))
	if text == "" {
		return models.Thread{}, ErrEmptyText
	}

	t := models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Image:     p.Image,
		Author:    p.Author,
		Community: p.Community,
		Children:  []primitive.ObjectID{},
		Likes:     []primitive.ObjectID{},
		Reposts:   []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Thread{}, err
	}
	return t, nil
}

// AddComment inserts a reply under the parent and records it in the
// parent's children list.
func (s *Store) AddComment(ctx context.Context, parentID primitive.ObjectID, text string, author primitive.ObjectID) (models.Thread, error) {
	text = strings.TrimSpace(textPolicy.Sanitize(text))
	if text == "" {
		return models.Thread{}, ErrEmptyText
	}

	var parent models.Thread
	err := s.c.FindOne(ctx, bson.M{"_id": parentID}).Decode(&parent)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Thread{}, ErrNotFound
	}
	if err != nil {
		return models.Thread{}, err
	}

	reply := models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    author,
		Community: parent.Community,
		ParentID:  &parentID,
		Children:  []primitive.ObjectID{},
		Likes:     []primitive.ObjectID{},
		Reposts:   []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, reply); err != nil {
		return models.Thread{}, err
	}

	_, err = s.c.UpdateByID(ctx, parentID, bson.M{
		"$push": bson.M{"children": reply.ID},
	})
	if err != nil {
		return models.Thread{}, err
	}
	return reply, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Thread, error) {
	var t models.Thread
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Thread{}, ErrNotFound
	}
	if err != nil {
		return models.Thread{}, err
	}
	return t, nil
}

// GetByIDs loads multiple threads, for hydrating children lists.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Thread, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ToggleLike flips the user's like on a thread. Returns true when the
// thread is liked after the call.
func (s *Store) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	return s.toggle(ctx, id, userID, "likes")
}

// ToggleRepost flips the user's repost of a thread. Returns true when the
// thread is reposted after the call.
func (s *Store) ToggleRepost(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	return s.toggle(ctx, id, userID, "reposts")
}

func (s *Store) toggle(ctx context.Context, id, userID primitive.ObjectID, field string) (bool, error) {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$addToSet": bson.M{field: userID}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	// Already present: remove instead.
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$pull": bson.M{field: userID}})
	return false, err
}

// FeedPage returns a page of root threads, newest first, plus whether a
// further page exists. Pages are 1-based.
func (s *Store) FeedPage(ctx context.Context, page, size int64) ([]models.Thread, bool, error) {
	if page < 1 {
		page = 1
	}
	filter := bson.M{"parent_id": nil}

	threads, err := s.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page-1)*size).
		SetLimit(size))
	if err != nil {
		return nil, false, err
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	return threads, total > page*size, nil
}

// ListByAuthor returns all threads by the user, newest first.
func (s *Store) ListByAuthor(ctx context.Context, userID primitive.ObjectID) ([]models.Thread, error) {
	return s.Find(ctx, bson.M{"author": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// ListByCommunity returns the community's root threads, newest first.
func (s *Store) ListByCommunity(ctx context.Context, communityID primitive.ObjectID) ([]models.Thread, error) {
	return s.Find(ctx, bson.M{"community": communityID, "parent_id": nil},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// ListRepliesTo returns replies other users made to the user's threads,
// newest first. Powers the activity view.
func (s *Store) ListRepliesTo(ctx context.Context, threadIDs []primitive.ObjectID, exceptAuthor primitive.ObjectID) ([]models.Thread, error) {
	if len(threadIDs) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{
		"parent_id": bson.M{"$in": threadIDs},
		"author":    bson.M{"$ne": exceptAuthor},
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// Find returns threads matching the filter with the given options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Thread, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var threads []models.Thread
	if err := cur.All(ctx, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// Count returns the number of threads matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
