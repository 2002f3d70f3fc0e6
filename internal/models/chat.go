package models

// Chat is a conversation between two or more users.
type Chat struct {
	ID        string        `json:"id"`
	Users     []UserSummary `json:"users"`
	Messages  []Message     `json:"messages"`
	UnreadFor []string      `json:"unreadFor,omitempty"`
}

// UnreadBy reports whether userID is in the chat's unread-for set.
func (c Chat) UnreadBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range c.UnreadFor {
		if id == userID {
			return true
		}
	}
	return false
}

// Others returns the participants other than userID, or everyone when that leaves nobody.
func (c Chat) Others(userID string) []UserSummary {
	others := make([]UserSummary, 0, len(c.Users))
	for _, u := range c.Users {
		if u.ID != userID {
			others = append(others, u)
		}
	}
	if len(others) == 0 {
		return c.Users
	}
	return others
}

// Message is a chat message. Edits and deletes are flagged in place.
type Message struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
	Delete bool   `json:"delete,omitempty"`
	Edit   bool   `json:"edit,omitempty"`
}

type SendMessageRequest struct {
	Text string `json:"text" form:"text" validate:"nonblank,max=2000"`
}

type CreateChatRequest struct {
	OtherUser string `json:"otherUser" validate:"required,instaid"`
}
