// internal/domain/models/thread.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thread is a post or a reply. A thread with a non-nil ParentID is a reply
// and is also listed in its parent's Children (dual-write, not
// transactional; see the membership/txn notes in DESIGN.md).
type Thread struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Text      string              `bson:"text" json:"text"`
	Image     string              `bson:"image,omitempty" json:"image,omitempty"`
	Author    primitive.ObjectID  `bson:"author" json:"author"`
	Community *primitive.ObjectID `bson:"community,omitempty" json:"community,omitempty"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`

	Children []primitive.ObjectID `bson:"children" json:"children"`
	Likes    []primitive.ObjectID `bson:"likes" json:"likes"`
	Reposts  []primitive.ObjectID `bson:"reposts" json:"reposts"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsReply reports whether the thread has a parent.
func (t *Thread) IsReply() bool { return t.ParentID != nil }
