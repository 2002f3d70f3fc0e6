package models

// Post represents a post with its author, like state and comments.
type Post struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	Image    string      `json:"image"`
	Likes    int         `json:"likes"`
	Fav      bool        `json:"fav"`
	Author   UserSummary `json:"author"`
	Comments []Comment   `json:"comments"`
}

// PostSummary is the result handed back by the edit-post modal.
type PostSummary struct {
	ID    string `json:"id"`
	Image string `json:"image"`
	Text  string `json:"text"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Image string `json:"image" validate:"required,url"`
	Text  string `json:"text" validate:"nonblank,max=2000"`
}

// EditPostRequest defines the request body for editing an existing post
type EditPostRequest struct {
	Image string `json:"image" validate:"required,url"`
	Text  string `json:"text" validate:"nonblank,max=2000"`
}
