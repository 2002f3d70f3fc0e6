package models

// UserInfo is the navigation aggregate derived from the current session.
type UserInfo struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	AvatarURL           string `json:"avatarUrl"`
	UnreadMessages      int    `json:"messageCount"`
	UnreadNotifications int    `json:"notificationsCount"`
}
