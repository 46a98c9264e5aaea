// Package membership implements the join/leave mutators for the
// user-community relation.
//
// The relation is materialized on both sides (Community.members and
// User.communities). Join and leave write both sides inside a transaction
// where the deployment supports one; on standalone servers the writes run
// sequentially and a failure between them is repaired by the next
// reconciliation pass.
package membership

import (
	"context"
	"errors"

	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/communityref"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/txn"
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound      = errors.New("user not found locally")
	ErrCommunityNotFound = communitystore.ErrNotFound
	// ErrCreatorCannotLeave guards the community against losing its owner.
	ErrCreatorCannotLeave = errors.New("the community creator cannot leave")
)

// Result reports a mutation outcome. Already-member joins and not-a-member
// leaves succeed with an explanatory note instead of erroring.
type Result struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message,omitempty"`
	Changed   bool             `json:"changed"`
	Community models.Community `json:"-"`
}

// Service mutates the membership relation.
type Service struct {
	client      *mongo.Client
	users       *userstore.Store
	communities *communitystore.Store
	cache       *listingcache.Cache
	log         *zap.Logger
}

func New(client *mongo.Client, users *userstore.Store, communities *communitystore.Store, cache *listingcache.Cache, logger *zap.Logger) *Service {
	return &Service{
		client:      client,
		users:       users,
		communities: communities,
		cache:       cache,
		log:         logger,
	}
}

// Join adds the user to the community identified by ref.
func (s *Service) Join(ctx context.Context, ref communityref.Ref, externalUserID string) (Result, error) {
	user, comm, err := s.resolve(ctx, ref, externalUserID)
	if err != nil {
		return Result{}, err
	}

	if comm.HasMember(user.ID) {
		return Result{Success: true, Message: "already a member", Community: comm}, nil
	}

	err = txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		if _, err := s.communities.AddMember(ctx, comm.ID, user.ID); err != nil {
			return err
		}
		return s.users.AddCommunity(ctx, user.ID, comm.ID)
	})
	if err != nil {
		return Result{}, err
	}

	s.cache.InvalidateCommunity(comm.PublicID)
	s.log.Info("user joined community",
		zap.String("user", externalUserID),
		zap.String("community", comm.PublicID))

	comm, err = s.communities.GetByID(ctx, comm.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Success: true, Changed: true, Community: comm}, nil
}

// Leave removes the user from the community identified by ref. The creator
// cannot leave their own community.
func (s *Service) Leave(ctx context.Context, ref communityref.Ref, externalUserID string) (Result, error) {
	user, comm, err := s.resolve(ctx, ref, externalUserID)
	if err != nil {
		return Result{}, err
	}

	if !comm.HasMember(user.ID) {
		return Result{Success: true, Message: "not a member", Community: comm}, nil
	}
	if comm.CreatedBy == user.ID {
		return Result{}, ErrCreatorCannotLeave
	}

	err = txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		if _, err := s.communities.RemoveMember(ctx, comm.ID, user.ID); err != nil {
			return err
		}
		return s.users.RemoveCommunity(ctx, user.ID, comm.ID)
	})
	if err != nil {
		return Result{}, err
	}

	s.cache.InvalidateCommunity(comm.PublicID)
	s.log.Info("user left community",
		zap.String("user", externalUserID),
		zap.String("community", comm.PublicID))

	comm, err = s.communities.GetByID(ctx, comm.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Success: true, Changed: true, Community: comm}, nil
}

func (s *Service) resolve(ctx context.Context, ref communityref.Ref, externalUserID string) (models.User, models.Community, error) {
	user, err := s.users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		return models.User{}, models.Community{}, ErrUserNotFound
	}
	comm, err := s.communities.GetByRef(ctx, ref)
	if err != nil {
		return models.User{}, models.Community{}, err
	}
	return user, comm, nil
}
