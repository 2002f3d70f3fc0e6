package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/chat"
	"github.com/instaflan/web/internal/middleware"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
	"github.com/instaflan/web/internal/session"
	"github.com/instaflan/web/internal/testutil"
	"github.com/instaflan/web/internal/userinfo"
	"github.com/instaflan/web/internal/workspace"
	"github.com/instaflan/web/validators"
)

type testEnv struct {
	e        *echo.Echo
	api      *testutil.FakeAPI
	registry *workspace.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := testutil.NewFakeAPI(t, models.User{ID: "u1", Name: "Flan", Image: "https://img.example/u1.png"})
	client := apiclient.New(api.URL())
	users := repositories.NewAPIUserRepository(client)
	chats := repositories.NewAPIChatRepository(client)
	registry := workspace.NewRegistry(workspace.Deps{
		Users:            users,
		Posts:            repositories.NewAPIPostRepository(client),
		Chats:            chats,
		Notifications:    repositories.NewAPINotificationRepository(client),
		ChatSource:       chat.NewPollingSource(chats.ByID, 10*time.Millisecond),
		Cache:            userinfo.NewMemoryCache(),
		FavoriteRollback: true,
	})
	t.Cleanup(registry.Close)

	sessions := session.NewStore(false)
	e := echo.New()
	e.Validator = validators.NewValidator()
	e.Use(middleware.SessionGuard(sessions, middleware.OnStaleToken(registry.Drop)))

	g := e.Group("")
	NewAuthHandler(users, sessions, registry).RegisterAuthRoutes(g)
	NewFeedHandler(registry).RegisterFeedRoutes(g)
	NewLikeHandler(registry).RegisterLikeRoutes(g)
	NewUserHandler(registry).RegisterProfileRoutes(g)
	NewFollowHandler(registry).RegisterFollowRoutes(g)
	NewNotificationHandler(registry).RegisterNotificationRoutes(g)
	NewChatHandler(registry).RegisterChatRoutes(g)
	NewModalHandler(registry).RegisterModalRoutes(g)
	NewUserInfoHandler(registry).RegisterUserInfoRoutes(g)
	e.GET("/health", HealthCheck)

	return &testEnv{e: e, api: api, registry: registry}
}

func (env *testEnv) do(method, path, body string, signedIn bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if signedIn {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: env.api.Token})
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Redirect string          `json:"redirect"`
	Error    string          `json:"error"`
	Message  string          `json:"message"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func dataAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
	return out
}

func TestLoginShowsAPIMessageVerbatim(t *testing.T) {
	env := newTestEnv(t)
	env.api.AddAccount("flan@example.com", "correct-horse")

	rec := env.do(http.MethodPost, "/login", `{"email":"flan@example.com","password":"wrong-password"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Wrong credentials", decode(t, rec).Message)
	assert.Empty(t, rec.Result().Cookies())

	rec = env.do(http.MethodPost, "/login", `{"email":"nobody@example.com","password":"whatever123"}`, false)
	assert.Equal(t, "User not found", decode(t, rec).Message)
}

func TestLoginSetsCookie(t *testing.T) {
	env := newTestEnv(t)
	env.api.AddAccount("flan@example.com", "correct-horse")

	rec := env.do(http.MethodPost, "/login", `{"email":"flan@example.com","password":"correct-horse"}`, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/home", decode(t, rec).Redirect)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, env.api.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginValidatesBeforeCallingAPI(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/login", `{"email":"not-an-email","password":"short"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.api.CallCount("POST /users/auth"))
}

func TestRegisterRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/register", `{"name":"Flan","email":"new@example.com","password":"correct-horse"}`, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/login", decode(t, rec).Redirect)
}

func TestLogoutDropsWorkspace(t *testing.T) {
	env := newTestEnv(t)
	env.registry.Get(env.api.Token)
	require.Equal(t, 1, env.registry.Len())

	rec := env.do(http.MethodPost, "/logout", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.registry.Len())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestSignedOutScreensRedirect(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/home", "", false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	rec = env.do(http.MethodGet, "/login", "", true)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get(echo.HeaderLocation))
}

func TestHomeAndFavoriteToggle(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetPosts(models.Post{ID: "p1", Text: "flan", Image: "https://img.example/1.jpg", Likes: 3, Author: models.UserSummary{ID: "u2"}})

	rec := env.do(http.MethodGet, "/home", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	home := dataAs[struct {
		Posts []models.Post `json:"posts"`
	}](t, rec)
	require.Len(t, home.Posts, 1)

	rec = env.do(http.MethodPut, "/home/posts/p1/favorite", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	toggled := dataAs[struct {
		Post models.Post `json:"post"`
	}](t, rec)
	assert.True(t, toggled.Post.Fav)
	assert.Equal(t, 4, toggled.Post.Likes)
}

func TestFavoriteFailureKeepsListConsistent(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetPosts(models.Post{ID: "p1", Text: "flan", Image: "https://img.example/1.jpg", Likes: 3})
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/home", "", true).Code)
	env.api.Fail(http.MethodPut, "/posts/p1", http.StatusInternalServerError, "")

	rec := env.do(http.MethodPut, "/home/posts/p1/favorite", "", true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	ws := env.registry.Get(env.api.Token)
	assert.False(t, ws.Home.Posts()[0].Fav)
	assert.Equal(t, 3, ws.Home.Posts()[0].Likes)

	rec = env.do(http.MethodGet, "/ui/modal", "", true)
	current := dataAs[struct {
		Modal struct {
			Kind string `json:"kind"`
		} `json:"modal"`
	}](t, rec)
	assert.Equal(t, "show-error", current.Modal.Kind)
}

func TestFavoriteOnUnloadedListIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPut, "/profile/u2/posts/p1/favorite", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileFollow(t *testing.T) {
	env := newTestEnv(t)
	env.api.AddUser(models.User{ID: "u2", Name: "Caramel"})

	rec := env.do(http.MethodGet, "/profile/u2", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := dataAs[struct {
		User models.User `json:"user"`
		Own  bool        `json:"own"`
	}](t, rec)
	assert.Equal(t, "Caramel", profile.User.Name)
	assert.False(t, profile.Own)

	rec = env.do(http.MethodPut, "/profile/u2/follow", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	followed := dataAs[struct {
		User models.User `json:"user"`
	}](t, rec)
	assert.True(t, followed.User.Follow)
	assert.Equal(t, 1, env.api.CallCount("PUT /users/u2"))

	rec = env.do(http.MethodPut, "/profile/u1/follow", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileTabs(t *testing.T) {
	env := newTestEnv(t)
	env.api.AddUser(models.User{ID: "u2", Name: "Caramel"})

	rec := env.do(http.MethodGet, "/profile/u2/fav-posts", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, env.api.CallCount("GET /users/u2/fav-posts"))
	assert.Equal(t, 1, env.api.CallCount("GET /users/u2"))
}

func TestNotificationsDeleteUpdatesCounter(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetNotifications(
		models.Notification{ID: "n1", Text: models.NotificationFollow, User: models.UserSummary{ID: "u2"}},
		models.Notification{ID: "n2", Text: models.NotificationLike, User: models.UserSummary{ID: "u2"}},
	)

	rec := env.do(http.MethodGet, "/ui/userinfo", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, dataAs[models.UserInfo](t, rec).UnreadNotifications)

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/notifications", "", true).Code)
	rec = env.do(http.MethodDelete, "/notifications/n1", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := dataAs[struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unreadCount"`
	}](t, rec)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, "n2", list.Notifications[0].ID)
	assert.Equal(t, 1, list.UnreadCount)
}

func TestModalEditPostFlow(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetPosts(models.Post{ID: "p1", Text: "old caption", Image: "https://img.example/1.jpg", Author: models.UserSummary{ID: "u1"}})
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/home", "", true).Code)

	rec := env.do(http.MethodPost, "/ui/modal/open", `{"kind":"edit-post","postId":"p1"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/ui/modal/submit", `{"text":"   "}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, open := env.registry.Get(env.api.Token).Modals.Active()
	assert.True(t, open)

	reads := env.api.CallCount("GET /posts")
	rec = env.do(http.MethodPost, "/ui/modal/submit", `{"text":"new caption","image":"https://img.example/1.jpg"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode(t, rec).Success)

	ws := env.registry.Get(env.api.Token)
	assert.Equal(t, "new caption", ws.Home.Posts()[0].Text)
	assert.Equal(t, reads, env.api.CallCount("GET /posts"))
	_, open = ws.Modals.Active()
	assert.False(t, open)
}

func TestModalOpenRejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/ui/modal/open", `{"kind":"launch-rocket"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/ui/modal/open", `{"kind":"delete-post"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/ui/modal/submit", `{"text":"x"}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFollowersListing(t *testing.T) {
	env := newTestEnv(t)
	env.api.AddUser(models.User{ID: "u2", Name: "Caramel", Followed: []string{"u1"}})

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/ui/modal/open", `{"kind":"followers","userId":"u2"}`, true).Code)
	rec := env.do(http.MethodGet, "/ui/modal/listing", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	listing := dataAs[struct {
		Users []models.User `json:"users"`
	}](t, rec)
	require.Len(t, listing.Users, 1)
	assert.Equal(t, "u1", listing.Users[0].ID)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/ui/modal/close", "", true).Code)
	rec = env.do(http.MethodGet, "/ui/modal/listing", "", true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChatSendAndLeave(t *testing.T) {
	env := newTestEnv(t)
	env.api.AddUser(models.User{ID: "u2", Name: "Caramel"})
	env.api.SetChats(models.Chat{ID: "c1", Users: []models.UserSummary{{ID: "u1"}, {ID: "u2"}}})

	rec := env.do(http.MethodPost, "/messages/c1", `{"text":"   "}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.api.CallCount("POST /chats/c1"))

	rec = env.do(http.MethodPost, "/messages/c1", `{"text":"hello"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := dataAs[chat.Snapshot](t, rec)
	require.NotNil(t, snap.Chat)
	require.NotEmpty(t, snap.Chat.Messages)
	assert.Equal(t, "hello", snap.Chat.Messages[len(snap.Chat.Messages)-1].Text)
	assert.Empty(t, snap.Draft)

	ws := env.registry.Get(env.api.Token)
	assert.Equal(t, 1, ws.OpenChats())
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/messages/c1", "", true).Code)
	assert.Zero(t, ws.OpenChats())
}

func TestStartChatReusesExisting(t *testing.T) {
	env := newTestEnv(t)
	env.api.AddUser(models.User{ID: "u2", Name: "Caramel"})
	env.api.SetChats(models.Chat{ID: "c1", Users: []models.UserSummary{{ID: "u1"}, {ID: "u2"}}})

	rec := env.do(http.MethodPost, "/messages", `{"otherUser":"u2"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/messages/c1", decode(t, rec).Redirect)

	rec = env.do(http.MethodGet, "/messages", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	inbox := dataAs[struct {
		Chats []struct {
			ChatID string `json:"chatId"`
		} `json:"chats"`
	}](t, rec)
	require.Len(t, inbox.Chats, 1)
	assert.Equal(t, "c1", inbox.Chats[0].ChatID)
}

func TestChatWebsocketStreamsChanges(t *testing.T) {
	env := newTestEnv(t)
	env.api.AddUser(models.User{ID: "u2", Name: "Caramel"})
	env.api.SetChats(models.Chat{ID: "c1", Users: []models.UserSummary{{ID: "u1"}, {ID: "u2"}}})

	srv := httptest.NewServer(env.e)
	defer srv.Close()

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: session.CookieName, Value: env.api.Token}).String())
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/messages/c1/ws", header)
	require.NoError(t, err)
	defer conn.Close()

	env.api.AppendMessage("c1", models.Message{ID: "m1", Author: "u2", Text: "hi"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var snap chat.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		if snap.Chat != nil && len(snap.Chat.Messages) == 1 {
			assert.Equal(t, "ready", snap.State)
			assert.Equal(t, "hi", snap.Chat.Messages[0].Text)
			return
		}
	}
}

func TestChatWebsocketCloseStopsView(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetChats(models.Chat{ID: "c1", Users: []models.UserSummary{{ID: "u1"}, {ID: "u2"}}})

	srv := httptest.NewServer(env.e)
	defer srv.Close()

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: session.CookieName, Value: env.api.Token}).String())
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/messages/c1/ws", header)
	require.NoError(t, err)

	ws := env.registry.Get(env.api.Token)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var snap chat.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, 1, ws.OpenChats())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return ws.OpenChats() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestReadingChatClearsUnreadCounter(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetChats(models.Chat{ID: "c1", Users: []models.UserSummary{{ID: "u1"}, {ID: "u2"}}, UnreadFor: []string{"u1"}})

	unread := func() int {
		rec := env.do(http.MethodGet, "/ui/userinfo", "", true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return dataAs[models.UserInfo](t, rec).UnreadMessages
	}
	require.Equal(t, 1, unread())

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/messages/c1", "", true).Code)
	require.Eventually(t, func() bool { return unread() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStaleCookieDropsWorkspace(t *testing.T) {
	env := newTestEnv(t)
	expired := testutil.ExpiredSessionToken(t, "u1")
	ws := env.registry.Get(expired)
	require.Equal(t, 1, env.registry.Len())

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: expired})
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, env.registry.Len())
	assert.Error(t, ws.Context().Err())
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
