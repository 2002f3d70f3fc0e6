package models

// Comment represents a comment on a post
type Comment struct {
	ID     string      `json:"id"`
	Text   string      `json:"text"`
	Author UserSummary `json:"author"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Text string `json:"text" validate:"nonblank,max=2000"`
}
