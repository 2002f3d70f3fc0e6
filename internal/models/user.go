package models

// User is a profile as returned by the remote API.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Followed    []string `json:"followed,omitempty"`
	Following   []string `json:"following,omitempty"`
	Follow      bool     `json:"follow"`
}

// UserSummary is the compact author/actor shape embedded in posts, chats and notifications.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// ToSummary returns the compact representation of the user
func (u User) ToSummary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Image: u.Image}
}

// ProfileSummary is the editable part of a profile, handed to the edit-user modal.
type ProfileSummary struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=64"`
}

type RegisterRequest struct {
	Name     string `json:"name" form:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=64"`
}

type EditUserRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Image       string `json:"image" validate:"required,url"`
	Description string `json:"description" validate:"nonblank"`
}
