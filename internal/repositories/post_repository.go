package repositories

import (
	"context"
	"net/http"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/validators"
)

// PostRepository defines the interface for post operations
type PostRepository interface {
	Feed(ctx context.Context) ([]models.Post, error)
	Explorer(ctx context.Context) ([]models.Post, error)
	ByID(ctx context.Context, postID string) (*models.Post, error)
	Create(ctx context.Context, image, text string) error
	Edit(ctx context.Context, summary models.PostSummary) error
	Delete(ctx context.Context, postID string) error
	ToggleFavorite(ctx context.Context, postID string) error
	Comment(ctx context.Context, postID, text string) error
}

type apiPostRepository struct {
	client *apiclient.Client
}

func NewAPIPostRepository(client *apiclient.Client) PostRepository {
	return &apiPostRepository{client: client}
}

func (r *apiPostRepository) Feed(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/posts",
		ErrorMessage: "Unexpected error while retrieving posts",
	}, &posts)
	return posts, err
}

func (r *apiPostRepository) Explorer(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/explorer/posts",
		ErrorMessage: "Unexpected error while retrieving explorer posts",
	}, &posts)
	return posts, err
}

func (r *apiPostRepository) ByID(ctx context.Context, postID string) (*models.Post, error) {
	if err := validators.ValidateID(postID); err != nil {
		return nil, err
	}

	var post models.Post
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/posts/" + postID,
		ErrorMessage: "Unexpected error while retrieving the post",
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *apiPostRepository) Create(ctx context.Context, image, text string) error {
	if err := validators.ValidateImage(image); err != nil {
		return err
	}
	if err := validators.ValidateText(text); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/posts",
		Body:         models.CreatePostRequest{Image: image, Text: text},
		ErrorMessage: "Unexpected error while creating the post",
	}, nil)
}

func (r *apiPostRepository) Edit(ctx context.Context, summary models.PostSummary) error {
	if err := validators.ValidateID(summary.ID); err != nil {
		return err
	}
	if err := validators.ValidateImage(summary.Image); err != nil {
		return err
	}
	if err := validators.ValidateText(summary.Text); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPatch,
		Path:         "/posts/" + summary.ID,
		Body:         models.EditPostRequest{Image: summary.Image, Text: summary.Text},
		ErrorMessage: "Unexpected error while editing the post",
	}, nil)
}

func (r *apiPostRepository) Delete(ctx context.Context, postID string) error {
	if err := validators.ValidateID(postID); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodDelete,
		Path:         "/posts/" + postID,
		ErrorMessage: "Unexpected error while deleting the post",
	}, nil)
}

func (r *apiPostRepository) ToggleFavorite(ctx context.Context, postID string) error {
	if err := validators.ValidateID(postID); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPut,
		Path:         "/posts/" + postID,
		ErrorMessage: "Unexpected error while toggling favorite post",
	}, nil)
}

func (r *apiPostRepository) Comment(ctx context.Context, postID, text string) error {
	if err := validators.ValidateID(postID); err != nil {
		return err
	}
	if err := validators.ValidateText(text); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/posts/" + postID + "/comments",
		Body:         models.CreateCommentRequest{Text: text},
		ErrorMessage: "Unexpected error while creating the comment",
	}, nil)
}
