package userinfo

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
	"github.com/instaflan/web/internal/testutil"
)

func newStore(t *testing.T, opts ...Option) (*Store, *testutil.FakeAPI, *modal.Orchestrator, context.Context) {
	t.Helper()
	api := testutil.NewFakeAPI(t, models.User{ID: "u1", Name: "Flan", Image: "https://img.example/u1.png"})
	client := apiclient.New(api.URL())
	o := modal.NewOrchestrator()
	s := NewStore(
		repositories.NewAPIUserRepository(client),
		repositories.NewAPIChatRepository(client),
		repositories.NewAPINotificationRepository(client),
		o,
		opts...,
	)
	return s, api, o, apiclient.WithToken(context.Background(), api.Token)
}

func TestRefreshDerivesCounts(t *testing.T) {
	s, api, _, ctx := newStore(t)
	api.SetChats(
		models.Chat{ID: "c1", UnreadFor: []string{"u1"}},
		models.Chat{ID: "c2", UnreadFor: []string{"u2"}},
		models.Chat{ID: "c3", UnreadFor: []string{"u1", "u2"}},
	)
	api.SetNotifications(
		models.Notification{ID: "n1", Text: models.NotificationLike},
		models.Notification{ID: "n2", Text: models.NotificationComment},
	)

	_, ok := s.Snapshot()
	assert.False(t, ok)

	require.NoError(t, s.Refresh(ctx))
	info, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, models.UserInfo{
		ID:                  "u1",
		Name:                "Flan",
		AvatarURL:           "https://img.example/u1.png",
		UnreadMessages:      2,
		UnreadNotifications: 2,
	}, info)
}

func TestRefreshFailureKeepsSnapshotAndReports(t *testing.T) {
	s, api, o, ctx := newStore(t)
	api.SetNotifications(models.Notification{ID: "n1", Text: models.NotificationFollow})
	require.NoError(t, s.Refresh(ctx))
	before, _ := s.Snapshot()

	api.SetNotifications()
	api.Fail(http.MethodGet, "/chats", http.StatusBadRequest, "Chats unavailable")
	require.Error(t, s.Refresh(ctx))

	after, _ := s.Snapshot()
	assert.Equal(t, before, after)
	m, ok := o.Active()
	require.True(t, ok)
	assert.Equal(t, modal.ShowError{Message: "Chats unavailable"}, m)
}

func TestLoadUsesCacheFirst(t *testing.T) {
	cache := NewMemoryCache()
	cached := models.UserInfo{ID: "u1", Name: "Cached", UnreadMessages: 9}
	require.NoError(t, cache.Set(context.Background(), "k", cached))

	s, api, _, ctx := newStore(t, WithCache(cache, "k"))
	api.Fail(http.MethodGet, "/users", http.StatusInternalServerError, "")

	assert.Error(t, s.Load(ctx))
	info, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, cached, info)

	api.Recover(http.MethodGet, "/users")
	require.NoError(t, s.Load(ctx))
	stored, found, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Flan", stored.Name)

	s.Forget(ctx)
	_, found, _ = cache.Get(context.Background(), "k")
	assert.False(t, found)
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := DialRedis(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	cache := NewRedisCache(client, time.Minute)
	info := models.UserInfo{ID: "u1", Name: "Flan", UnreadNotifications: 3}
	require.NoError(t, cache.Set(ctx, "test-session", info))

	got, found, err := cache.Get(ctx, "test-session")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, info, got)

	require.NoError(t, cache.Delete(ctx, "test-session"))
	_, found, err = cache.Get(ctx, "test-session")
	require.NoError(t, err)
	assert.False(t, found)
}
