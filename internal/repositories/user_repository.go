package repositories

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/validators"
)

// UserRepository defines the interface for user and profile operations
type UserRepository interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) error
	Current(ctx context.Context) (*models.User, error)
	Edit(ctx context.Context, profile models.ProfileSummary) error
	ByID(ctx context.Context, userID string) (*models.User, error)
	ToggleFollow(ctx context.Context, userID string) error
	Posts(ctx context.Context, userID string) ([]models.Post, error)
	FavPosts(ctx context.Context, userID string) ([]models.Post, error)
	Followed(ctx context.Context, userID string) ([]models.User, error)
	Following(ctx context.Context, userID string) ([]models.User, error)
	NotFollowed(ctx context.Context) ([]models.UserSummary, error)
	Search(ctx context.Context, text string) ([]models.UserSummary, error)
}

type apiUserRepository struct {
	client *apiclient.Client
}

func NewAPIUserRepository(client *apiclient.Client) UserRepository {
	return &apiUserRepository{client: client}
}

func (r *apiUserRepository) Authenticate(ctx context.Context, email, password string) (string, error) {
	if err := validators.ValidateEmail(email); err != nil {
		return "", err
	}
	if err := validators.ValidatePassword(password); err != nil {
		return "", err
	}

	var token string
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/users/auth",
		Body:         map[string]string{"email": email, "password": password},
		Public:       true,
		ErrorMessage: "Unexpected error while authenticating",
	}, &token)
	if err != nil {
		return "", err
	}
	if err := validators.ValidateToken(token); err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	return token, nil
}

func (r *apiUserRepository) Register(ctx context.Context, name, email, password string) error {
	if err := validators.ValidateName(name); err != nil {
		return err
	}
	if err := validators.ValidateEmail(email); err != nil {
		return err
	}
	if err := validators.ValidatePassword(password); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/users",
		Body:         map[string]string{"name": name, "email": email, "password": password},
		Public:       true,
		ErrorMessage: "Unexpected error while registering",
	}, nil)
}

func (r *apiUserRepository) Current(ctx context.Context) (*models.User, error) {
	var user models.User
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/users",
		ErrorMessage: "Unexpected error while retrieving the user",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *apiUserRepository) Edit(ctx context.Context, profile models.ProfileSummary) error {
	if err := validators.ValidateName(profile.Name); err != nil {
		return err
	}
	if err := validators.ValidateImage(profile.Image); err != nil {
		return err
	}
	if err := validators.ValidateText(profile.Description); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPatch,
		Path:         "/users",
		Body:         models.EditUserRequest{Name: profile.Name, Image: profile.Image, Description: profile.Description},
		ErrorMessage: "Unexpected error while editing the user",
	}, nil)
}

func (r *apiUserRepository) ByID(ctx context.Context, userID string) (*models.User, error) {
	if err := validators.ValidateID(userID); err != nil {
		return nil, err
	}

	var user models.User
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/users/" + userID,
		ErrorMessage: "Unexpected error while retrieving the user",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *apiUserRepository) ToggleFollow(ctx context.Context, userID string) error {
	if err := validators.ValidateID(userID); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPut,
		Path:         "/users/" + userID,
		ErrorMessage: "Unexpected error while toggling follow state",
	}, nil)
}

func (r *apiUserRepository) Posts(ctx context.Context, userID string) ([]models.Post, error) {
	return r.postList(ctx, userID, "posts", "Unexpected error while retrieving the user's posts")
}

func (r *apiUserRepository) FavPosts(ctx context.Context, userID string) ([]models.Post, error) {
	return r.postList(ctx, userID, "fav-posts", "Unexpected error while retrieving favorite posts")
}

func (r *apiUserRepository) postList(ctx context.Context, userID, segment, msg string) ([]models.Post, error) {
	if err := validators.ValidateID(userID); err != nil {
		return nil, err
	}

	var posts []models.Post
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/users/" + userID + "/" + segment,
		ErrorMessage: msg,
	}, &posts)
	return posts, err
}

func (r *apiUserRepository) Followed(ctx context.Context, userID string) ([]models.User, error) {
	return r.userList(ctx, userID, "followed", "Unexpected error while retrieving followed users")
}

func (r *apiUserRepository) Following(ctx context.Context, userID string) ([]models.User, error) {
	return r.userList(ctx, userID, "following", "Unexpected error while retrieving following users")
}

func (r *apiUserRepository) userList(ctx context.Context, userID, segment, msg string) ([]models.User, error) {
	if err := validators.ValidateID(userID); err != nil {
		return nil, err
	}

	var users []models.User
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/users/" + userID + "/" + segment,
		ErrorMessage: msg,
	}, &users)
	return users, err
}

func (r *apiUserRepository) NotFollowed(ctx context.Context) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/explorer/users",
		ErrorMessage: "Unexpected error while retrieving users not followed",
	}, &users)
	return users, err
}

func (r *apiUserRepository) Search(ctx context.Context, text string) ([]models.UserSummary, error) {
	if err := validators.ValidateText(text); err != nil {
		return nil, err
	}

	var users []models.UserSummary
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/search/" + url.PathEscape(strings.TrimSpace(text)),
		ErrorMessage: "Unexpected error searching users",
	}, &users)
	return users, err
}
