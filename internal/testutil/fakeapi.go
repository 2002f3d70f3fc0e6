package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/instaflan/web/internal/models"
)

type failure struct {
	status  int
	message string
}

// FakeAPI is an in-memory stand-in for the remote InstaFlan REST API.
type FakeAPI struct {
	Server *httptest.Server
	Token  string

	mu            sync.Mutex
	me            models.User
	users         map[string]models.User
	passwords     map[string]string
	posts         []models.Post
	chats         []models.Chat
	notifications []models.Notification
	failures      map[string]failure
	calls         []string
	nextID        int
}

// NewFakeAPI starts a fake API whose current user is me, authenticated with a fresh token.
func NewFakeAPI(t testing.TB, me models.User) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		Token:     SessionToken(t, me.ID),
		me:        me,
		users:     map[string]models.User{me.ID: me},
		passwords: map[string]string{},
		failures:  map[string]failure{},
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base origin of the fake.
func (f *FakeAPI) URL() string { return f.Server.URL }

func (f *FakeAPI) AddUser(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *FakeAPI) AddAccount(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[email] = password
}

func (f *FakeAPI) SetPosts(posts ...models.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append([]models.Post(nil), posts...)
}

func (f *FakeAPI) SetChats(chats ...models.Chat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append([]models.Chat(nil), chats...)
}

func (f *FakeAPI) SetNotifications(ns ...models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append([]models.Notification(nil), ns...)
}

// Post returns the stored post with the given id.
func (f *FakeAPI) Post(id string) (models.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

// Chat returns the stored chat with the given id.
func (f *FakeAPI) Chat(id string) (models.Chat, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chats {
		if c.ID == id {
			return c, true
		}
	}
	return models.Chat{}, false
}

// AppendMessage adds a message to a chat as if another participant had sent it.
func (f *FakeAPI) AppendMessage(chatID string, msg models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.chats {
		if f.chats[i].ID == chatID {
			f.chats[i].Messages = append(f.chats[i].Messages, msg)
		}
	}
}

// Fail makes every "METHOD /path" request answer with status (and message for 400).
func (f *FakeAPI) Fail(method, path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = failure{status: status, message: message}
}

// Recover removes a failure installed with Fail.
func (f *FakeAPI) Recover(method, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, method+" "+path)
}

// Calls returns every request seen so far as "METHOD /path".
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts requests matching "METHOD /path".
func (f *FakeAPI) CallCount(key string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == key {
			n++
		}
	}
	return n
}

func (f *FakeAPI) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users/auth", f.authenticate)
	mux.HandleFunc("POST /users", f.register)
	mux.HandleFunc("GET /users", f.private(f.currentUser))
	mux.HandleFunc("PATCH /users", f.private(f.editUser))
	mux.HandleFunc("GET /users/{id}", f.private(f.userByID))
	mux.HandleFunc("PUT /users/{id}", f.private(f.toggleFollow))
	mux.HandleFunc("GET /users/{id}/{list}", f.private(f.userList))
	mux.HandleFunc("GET /explorer/users", f.private(f.explorerUsers))
	mux.HandleFunc("GET /explorer/posts", f.private(f.listPosts))
	mux.HandleFunc("GET /search/{text}", f.private(f.search))

	mux.HandleFunc("GET /posts", f.private(f.listPosts))
	mux.HandleFunc("POST /posts", f.private(f.createPost))
	mux.HandleFunc("GET /posts/{id}", f.private(f.postByID))
	mux.HandleFunc("PATCH /posts/{id}", f.private(f.editPost))
	mux.HandleFunc("DELETE /posts/{id}", f.private(f.deletePost))
	mux.HandleFunc("PUT /posts/{id}", f.private(f.toggleFav))
	mux.HandleFunc("POST /posts/{id}/comments", f.private(f.comment))

	mux.HandleFunc("GET /chats", f.private(f.listChats))
	mux.HandleFunc("POST /chats", f.private(f.createChat))
	mux.HandleFunc("GET /chats/{id}", f.private(f.chatByID))
	mux.HandleFunc("POST /chats/{id}", f.private(f.sendMessage))
	mux.HandleFunc("PATCH /chats/{id}", f.private(f.editMessage))
	mux.HandleFunc("PUT /chats/{id}", f.private(f.deleteMessage))
	mux.HandleFunc("GET /chats-not-reading", f.private(f.chatsNotReading))

	mux.HandleFunc("GET /notifications", f.private(f.listNotifications))
	mux.HandleFunc("DELETE /notifications", f.private(f.deleteAllNotifications))
	mux.HandleFunc("DELETE /notifications/{id}", f.private(f.deleteNotification))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls = append(f.calls, key)
		fail, failing := f.failures[key]
		f.mu.Unlock()

		if failing {
			if fail.status == http.StatusBadRequest {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": fail.message})
				return
			}
			w.WriteHeader(fail.status)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) private(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.Token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (f *FakeAPI) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *FakeAPI) authenticate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	pw, ok := f.passwords[body.Email]
	f.mu.Unlock()
	if !ok {
		badRequest(w, "User not found")
		return
	}
	if pw != body.Password {
		badRequest(w, "Wrong credentials")
		return
	}
	writeJSON(w, http.StatusOK, f.Token)
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.passwords[body.Email]; exists {
		badRequest(w, "User already exists")
		return
	}
	f.passwords[body.Email] = body.Password
	w.WriteHeader(http.StatusCreated)
}

func (f *FakeAPI) currentUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, f.users[f.me.ID])
}

func (f *FakeAPI) editUser(w http.ResponseWriter, r *http.Request) {
	var body models.ProfileSummary
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[f.me.ID]
	u.Name, u.Image, u.Description = body.Name, body.Image, body.Description
	f.users[f.me.ID] = u
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) userByID(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[r.PathValue("id")]
	if !ok {
		badRequest(w, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (f *FakeAPI) toggleFollow(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[r.PathValue("id")]
	if !ok {
		badRequest(w, "User not found")
		return
	}
	u.Follow = !u.Follow
	f.users[u.ID] = u
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) userList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := r.PathValue("id")
	switch r.PathValue("list") {
	case "posts", "fav-posts":
		fav := r.PathValue("list") == "fav-posts"
		out := []models.Post{}
		for _, p := range f.posts {
			if (fav && p.Fav) || (!fav && p.Author.ID == id) {
				out = append(out, p)
			}
		}
		writeJSON(w, http.StatusOK, out)
	case "followed", "following":
		u := f.users[id]
		ids := u.Followed
		if r.PathValue("list") == "following" {
			ids = u.Following
		}
		out := []models.User{}
		for _, uid := range ids {
			out = append(out, f.users[uid])
		}
		writeJSON(w, http.StatusOK, out)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *FakeAPI) explorerUsers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.UserSummary{}
	for _, u := range f.users {
		if u.ID != f.me.ID && !u.Follow {
			out = append(out, u.ToSummary())
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) search(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text := strings.ToLower(r.PathValue("text"))
	out := []models.UserSummary{}
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Name), text) {
			out = append(out, u.ToSummary())
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) listPosts(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]models.Post{}, f.posts...))
}

func (f *FakeAPI) createPost(w http.ResponseWriter, r *http.Request) {
	var body models.CreatePostRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	post := models.Post{
		ID:     f.newID("p"),
		Text:   body.Text,
		Image:  body.Image,
		Author: f.me.ToSummary(),
	}
	f.posts = append([]models.Post{post}, f.posts...)
	w.WriteHeader(http.StatusCreated)
}

func (f *FakeAPI) findPost(id string) int {
	for i := range f.posts {
		if f.posts[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeAPI) postByID(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findPost(r.PathValue("id"))
	if i < 0 {
		badRequest(w, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, f.posts[i])
}

func (f *FakeAPI) editPost(w http.ResponseWriter, r *http.Request) {
	var body models.EditPostRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findPost(r.PathValue("id"))
	if i < 0 {
		badRequest(w, "Post not found")
		return
	}
	f.posts[i].Text, f.posts[i].Image = body.Text, body.Image
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) deletePost(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findPost(r.PathValue("id"))
	if i < 0 {
		badRequest(w, "Post not found")
		return
	}
	f.posts = append(f.posts[:i], f.posts[i+1:]...)
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) toggleFav(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findPost(r.PathValue("id"))
	if i < 0 {
		badRequest(w, "Post not found")
		return
	}
	if f.posts[i].Fav {
		f.posts[i].Likes--
	} else {
		f.posts[i].Likes++
	}
	f.posts[i].Fav = !f.posts[i].Fav
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) comment(w http.ResponseWriter, r *http.Request) {
	var body models.CreateCommentRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findPost(r.PathValue("id"))
	if i < 0 {
		badRequest(w, "Post not found")
		return
	}
	f.posts[i].Comments = append(f.posts[i].Comments, models.Comment{
		ID:     f.newID("c"),
		Text:   body.Text,
		Author: f.me.ToSummary(),
	})
	w.WriteHeader(http.StatusCreated)
}

func (f *FakeAPI) listChats(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]models.Chat{}, f.chats...))
}

func (f *FakeAPI) createChat(w http.ResponseWriter, r *http.Request) {
	var body models.CreateChatRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	other, ok := f.users[body.OtherUser]
	if !ok {
		badRequest(w, "User not found")
		return
	}
	for _, c := range f.chats {
		for _, u := range c.Users {
			if u.ID == other.ID {
				writeJSON(w, http.StatusOK, c)
				return
			}
		}
	}
	chat := models.Chat{
		ID:       f.newID("chat"),
		Users:    []models.UserSummary{f.me.ToSummary(), other.ToSummary()},
		Messages: []models.Message{},
	}
	f.chats = append(f.chats, chat)
	writeJSON(w, http.StatusCreated, chat)
}

func (f *FakeAPI) findChat(id string) int {
	for i := range f.chats {
		if f.chats[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeAPI) chatByID(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findChat(r.PathValue("id"))
	if i < 0 {
		badRequest(w, "Chat not found")
		return
	}
	chat := f.chats[i]
	// reading a chat clears the caller's unread flag
	unread := chat.UnreadFor[:0:0]
	for _, id := range chat.UnreadFor {
		if id != f.me.ID {
			unread = append(unread, id)
		}
	}
	f.chats[i].UnreadFor = unread
	writeJSON(w, http.StatusOK, chat)
}

func (f *FakeAPI) sendMessage(w http.ResponseWriter, r *http.Request) {
	var body models.SendMessageRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findChat(r.PathValue("id"))
	if i < 0 {
		badRequest(w, "Chat not found")
		return
	}
	f.chats[i].Messages = append(f.chats[i].Messages, models.Message{
		ID:     f.newID("m"),
		Author: f.me.ID,
		Text:   body.Text,
	})
	w.WriteHeader(http.StatusCreated)
}

func (f *FakeAPI) findMessage(id string) (int, int) {
	for i := range f.chats {
		for j := range f.chats[i].Messages {
			if f.chats[i].Messages[j].ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}

func (f *FakeAPI) editMessage(w http.ResponseWriter, r *http.Request) {
	var body models.SendMessageRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	i, j := f.findMessage(r.PathValue("id"))
	if i < 0 {
		badRequest(w, "Message not found")
		return
	}
	f.chats[i].Messages[j].Text = body.Text
	f.chats[i].Messages[j].Edit = true
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) deleteMessage(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, j := f.findMessage(r.PathValue("id"))
	if i < 0 {
		badRequest(w, "Message not found")
		return
	}
	f.chats[i].Messages[j].Delete = true
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) chatsNotReading(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.chats {
		if c.UnreadBy(f.me.ID) {
			n++
		}
	}
	writeJSON(w, http.StatusOK, n)
}

func (f *FakeAPI) listNotifications(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]models.Notification{}, f.notifications...))
}

func (f *FakeAPI) deleteNotification(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := r.PathValue("id")
	for i, n := range f.notifications {
		if n.ID == id {
			f.notifications = append(f.notifications[:i], f.notifications[i+1:]...)
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	badRequest(w, "Notification not found")
}

func (f *FakeAPI) deleteAllNotifications(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = nil
	w.WriteHeader(http.StatusOK)
}
