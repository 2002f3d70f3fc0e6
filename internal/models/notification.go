package models

// NotificationKind is the closed set of notification tags sent by the API.
type NotificationKind string

const (
	NotificationFollow  NotificationKind = "Follow"
	NotificationLike    NotificationKind = "Like"
	NotificationComment NotificationKind = "Comment"
)

// Valid reports whether k is one of the known tags
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationFollow, NotificationLike, NotificationComment:
		return true
	}
	return false
}

// Notification represents a user notification
type Notification struct {
	ID   string               `json:"id"`
	Text NotificationKind     `json:"text"`
	User UserSummary          `json:"user"`
	Post *NotificationPreview `json:"post,omitempty"`
}

// NotificationPreview carries the image of the post the notification refers to.
type NotificationPreview struct {
	Image string `json:"image"`
}
