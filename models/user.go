package models

// User is the local mirror of an identity-provider account.
type User struct {
	Model
	Email      string `json:"email" gorm:"uniqueIndex;not null"`
	Name       string `json:"name" gorm:"not null"`
	ProviderID string `json:"provider_id,omitempty" gorm:"index"`
	AvatarURL  string `json:"avatar_url"`
}

// ExternalIdentity is what the identity provider tells us about a signed-in user.
type ExternalIdentity struct {
	ProviderID string `json:"provider_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

func (u *User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
	}
}

type LoginResponse struct {
	UserResponse
	AccessToken string `json:"access_token"`
}
