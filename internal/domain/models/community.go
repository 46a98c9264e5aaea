// internal/domain/models/community.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community is the local representation of a group, which may or may not
// correlate to an organization in the external identity provider.
//
// PublicID is the application-level identifier exposed in URLs: the external
// org ID for provider-originated communities, a locally generated token
// ("loc_<uuid>") otherwise. ExternalID is set only when the community is
// correlated to an external organization; reconciliation matches on it.
type Community struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PublicID   string             `bson:"public_id" json:"public_id"`
	ExternalID string             `bson:"external_id,omitempty" json:"external_id,omitempty"`
	Name       string             `bson:"name" json:"name"`
	NameCI     string             `bson:"name_ci" json:"name_ci"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"username_ci"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	Bio        string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Private    bool               `bson:"private" json:"private"`

	CreatedBy primitive.ObjectID   `bson:"created_by" json:"created_by"`
	Members   []primitive.ObjectID `bson:"members" json:"members"`
	Threads   []primitive.ObjectID `bson:"threads" json:"threads"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether userID is present in the Members list.
func (c *Community) HasMember(userID primitive.ObjectID) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}
