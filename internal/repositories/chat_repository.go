package repositories

import (
	"context"
	"net/http"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/validators"
)

// ChatRepository defines the interface for direct messaging operations
type ChatRepository interface {
	List(ctx context.Context) ([]models.Chat, error)
	Create(ctx context.Context, otherUserID string) (*models.Chat, error)
	ByID(ctx context.Context, chatID string) (*models.Chat, error)
	Send(ctx context.Context, chatID, text string) error
	EditMessage(ctx context.Context, messageID, text string) error
	DeleteMessage(ctx context.Context, messageID string) error
	UnreadCount(ctx context.Context) (int, error)
}

type apiChatRepository struct {
	client *apiclient.Client
}

func NewAPIChatRepository(client *apiclient.Client) ChatRepository {
	return &apiChatRepository{client: client}
}

func (r *apiChatRepository) List(ctx context.Context) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/chats",
		ErrorMessage: "Unexpected error while retrieving chats",
	}, &chats)
	return chats, err
}

func (r *apiChatRepository) Create(ctx context.Context, otherUserID string) (*models.Chat, error) {
	if err := validators.ValidateID(otherUserID); err != nil {
		return nil, err
	}

	var chat models.Chat
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/chats",
		Body:         models.CreateChatRequest{OtherUser: otherUserID},
		ErrorMessage: "Unexpected error creating chat",
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *apiChatRepository) ByID(ctx context.Context, chatID string) (*models.Chat, error) {
	if err := validators.ValidateID(chatID); err != nil {
		return nil, err
	}

	var chat models.Chat
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/chats/" + chatID,
		ErrorMessage: "Unexpected error while retrieving the chat",
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *apiChatRepository) Send(ctx context.Context, chatID, text string) error {
	if err := validators.ValidateID(chatID); err != nil {
		return err
	}
	if err := validators.ValidateText(text); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/chats/" + chatID,
		Body:         models.SendMessageRequest{Text: text},
		ErrorMessage: "Unexpected error while sending the message",
	}, nil)
}

func (r *apiChatRepository) EditMessage(ctx context.Context, messageID, text string) error {
	if err := validators.ValidateID(messageID); err != nil {
		return err
	}
	if err := validators.ValidateText(text); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPatch,
		Path:         "/chats/" + messageID,
		Body:         models.SendMessageRequest{Text: text},
		ErrorMessage: "Unexpected error while editing the message",
	}, nil)
}

// DeleteMessage soft-deletes a message; the API keeps it in the chat with the delete flag set.
func (r *apiChatRepository) DeleteMessage(ctx context.Context, messageID string) error {
	if err := validators.ValidateID(messageID); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPut,
		Path:         "/chats/" + messageID,
		ErrorMessage: "Unexpected error while deleting the message",
	}, nil)
}

func (r *apiChatRepository) UnreadCount(ctx context.Context) (int, error) {
	var count int
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/chats-not-reading",
		ErrorMessage: "Unexpected error while retrieving chats not read count",
	}, &count)
	return count, err
}
