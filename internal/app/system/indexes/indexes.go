// Package indexes creates the MongoDB indexes the app relies on.
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll is called at startup. Each ensure* function is idempotent.
// Errors are aggregated so every problem is visible and startup fails fast.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	if err := ensureUsers(ctx, db, logger); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureCommunities(ctx, db, logger); err != nil {
		problems = append(problems, "communities: "+err.Error())
	}
	if err := ensureThreads(ctx, db, logger); err != nil {
		problems = append(problems, "threads: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection("users"), logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetName("uniq_external_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username_ci", Value: 1}},
			Options: options.Index().SetName("uniq_username_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "communities", Value: 1}},
			Options: options.Index().SetName("by_community"),
		},
	})
}

func ensureCommunities(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection("communities"), logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username_ci", Value: 1}},
			Options: options.Index().SetName("uniq_username_ci").SetUnique(true),
		},
		{
			// Sparse: purely local communities have no external_id.
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetName("uniq_external_id").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "public_id", Value: 1}},
			Options: options.Index().SetName("uniq_public_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("by_member"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_created_desc"),
		},
	})
}

func ensureThreads(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection("threads"), logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_parent_created"),
		},
		{
			Keys:    bson.D{{Key: "author", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_author_created"),
		},
		{
			Keys:    bson.D{{Key: "community", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_community_created"),
		},
	})
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, logger *zap.Logger, models []mongo.IndexModel) error {
	for _, m := range models {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			// Same keys under a different name or with different options:
			// surface it rather than silently diverging.
			logger.Error("ensuring index failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.Error(err))
			return err
		}
		logger.Debug("ensured index",
			zap.String("collection", coll.Name()),
			zap.String("name", name))
	}
	return nil
}
