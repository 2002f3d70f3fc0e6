package repositories

import (
	"context"
	"net/http"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/validators"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	List(ctx context.Context) ([]models.Notification, error)
	Delete(ctx context.Context, notificationID string) error
	DeleteAll(ctx context.Context) error
}

type apiNotificationRepository struct {
	client *apiclient.Client
}

func NewAPINotificationRepository(client *apiclient.Client) NotificationRepository {
	return &apiNotificationRepository{client: client}
}

func (r *apiNotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/notifications",
		ErrorMessage: "Unexpected error while retrieving notifications",
	}, &notifications)
	return notifications, err
}

func (r *apiNotificationRepository) Delete(ctx context.Context, notificationID string) error {
	if err := validators.ValidateID(notificationID); err != nil {
		return err
	}

	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodDelete,
		Path:         "/notifications/" + notificationID,
		ErrorMessage: "Unexpected error while deleting the notification",
	}, nil)
}

func (r *apiNotificationRepository) DeleteAll(ctx context.Context) error {
	return r.client.Do(ctx, apiclient.Request{
		Method:       http.MethodDelete,
		Path:         "/notifications",
		ErrorMessage: "Unexpected error while deleting notifications",
	}, nil)
}
