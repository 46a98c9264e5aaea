// internal/app/features/users/types.go
package users

import "github.com/threadhive/threadhive/internal/domain/models"

// profileData is the user detail response.
type profileData struct {
	ID          string   `json:"id"` // external user ID
	Username    string   `json:"username"`
	Name        string   `json:"name"`
	Image       string   `json:"image,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	Onboarded   bool     `json:"onboarded"`
	Communities []string `json:"communities"` // community public IDs
}

// listData is the paginated user listing response.
type listData struct {
	Users  []profileData `json:"users"`
	IsNext bool          `json:"is_next"`
}

// upsertInput defines validation rules for profile updates.
type upsertInput struct {
	Username string `json:"username" validate:"required,min=3,max=30" label:"Username"`
	Name     string `json:"name" validate:"required,max=100" label:"Name"`
	Bio      string `json:"bio" validate:"max=1000" label:"Bio"`
	Image    string `json:"image" validate:"omitempty,url" label:"Image URL"`
}

func toProfile(u models.User, communityPublicIDs []string) profileData {
	return profileData{
		ID:          u.ExternalID,
		Username:    u.Username,
		Name:        u.Name,
		Image:       u.Image,
		Bio:         u.Bio,
		Onboarded:   u.Onboarded,
		Communities: communityPublicIDs,
	}
}
