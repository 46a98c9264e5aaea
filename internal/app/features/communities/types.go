// internal/app/features/communities/types.go
package communities

import (
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listItem is a single community row in listings.
type listItem struct {
	ID          string `json:"id"` // public ID
	Name        string `json:"name"`
	Username    string `json:"username"`
	Image       string `json:"image,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Private     bool   `json:"private"`
	MemberCount int    `json:"member_count"`
	IsMember    bool   `json:"is_member"`
}

// listData is the listing response.
type listData struct {
	Communities []listItem `json:"communities"`
	IsNext      bool       `json:"is_next"`
}

// memberItem is a user summary inside a community view.
type memberItem struct {
	ID       string `json:"id"` // external user ID
	Username string `json:"username"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
}

// viewData is the community detail response.
type viewData struct {
	listItem
	CreatedBy string       `json:"created_by,omitempty"` // external user ID when known
	Members   []memberItem `json:"members"`
}

// createInput defines validation rules for creating a community.
type createInput struct {
	Name           string `json:"name" validate:"required,max=200" label:"Community name"`
	Username       string `json:"username" validate:"max=100" label:"Username"`
	Bio            string `json:"bio" validate:"max=1000" label:"Bio"`
	Image          string `json:"image" validate:"omitempty,url" label:"Image URL"`
	Private        bool   `json:"private"`
	CreateExternal bool   `json:"create_external"`
}

func toListItem(c models.Community, viewerID primitive.ObjectID, hasViewer bool) listItem {
	return listItem{
		ID:          c.PublicID,
		Name:        c.Name,
		Username:    c.Username,
		Image:       c.Image,
		Bio:         c.Bio,
		Private:     c.Private,
		MemberCount: len(c.Members),
		IsMember:    hasViewer && c.HasMember(viewerID),
	}
}
