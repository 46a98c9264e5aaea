// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a person known to ThreadHive.
//
// NOTE:
//   - ExternalID is the identity provider's user ID and is the key used
//     on first authenticated contact (upsert). Users are never hard-deleted.
//   - Communities is the user-side half of the membership relation; the
//     community's Members list is the authoritative side.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExternalID string             `bson:"external_id" json:"external_id"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"username_ci"` // lowercase, diacritics-stripped
	Name       string             `bson:"name" json:"name"`
	NameCI     string             `bson:"name_ci" json:"name_ci"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	Bio        string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Onboarded  bool               `bson:"onboarded" json:"onboarded"`

	Threads     []primitive.ObjectID `bson:"threads" json:"threads"`
	Communities []primitive.ObjectID `bson:"communities" json:"communities"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
