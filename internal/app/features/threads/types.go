// internal/app/features/threads/types.go
package threads

import (
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// authorItem is a user summary embedded in thread views.
type authorItem struct {
	ID       string `json:"id"` // external user ID
	Username string `json:"username"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
}

// threadItem is a thread row in feed and view responses.
type threadItem struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Image     string       `json:"image,omitempty"`
	Author    authorItem   `json:"author"`
	Community string       `json:"community,omitempty"` // community public ID
	ParentID  string       `json:"parent_id,omitempty"`
	Replies   int          `json:"replies"`
	Likes     int          `json:"likes"`
	Reposts   int          `json:"reposts"`
	CreatedAt int64        `json:"created_at"`
	Children  []threadItem `json:"children,omitempty"`
}

// feedData is the paginated feed response.
type feedData struct {
	Threads []threadItem `json:"threads"`
	IsNext  bool         `json:"is_next"`
}

// createInput defines validation rules for posting a thread.
type createInput struct {
	Text        string `json:"text" validate:"required,max=5000" label:"Thread text"`
	Image       string `json:"image" validate:"omitempty,url" label:"Image URL"`
	CommunityID string `json:"community_id"`
}

// commentInput defines validation rules for replying to a thread.
type commentInput struct {
	Text string `json:"text" validate:"required,max=5000" label:"Comment text"`
}

func toThreadItem(t models.Thread, authors map[primitive.ObjectID]authorItem, communityPublicIDs map[primitive.ObjectID]string) threadItem {
	item := threadItem{
		ID:        t.ID.Hex(),
		Text:      t.Text,
		Image:     t.Image,
		Author:    authors[t.Author],
		Replies:   len(t.Children),
		Likes:     len(t.Likes),
		Reposts:   len(t.Reposts),
		CreatedAt: t.CreatedAt.Unix(),
	}
	if t.Community != nil {
		item.Community = communityPublicIDs[*t.Community]
	}
	if t.ParentID != nil {
		item.ParentID = t.ParentID.Hex()
	}
	return item
}
